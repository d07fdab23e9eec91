package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// fakeService is an in-memory spreadsheet with one sheet per id.
type fakeService struct {
	mu      sync.Mutex
	rows    map[string][][]string
	calls   []string
	nextID  int
	failOn  string
	failErr error
}

func newFakeService() *fakeService {
	return &fakeService{rows: map[string][][]string{}}
}

func (f *fakeService) called(op string) error {
	f.calls = append(f.calls, op)
	if f.failOn == op {
		return f.failErr
	}
	return nil
}

func (f *fakeService) Append(_ context.Context, id, _ string, row []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("append"); err != nil {
		return err
	}
	f.rows[id] = append(f.rows[id], append([]string(nil), row...))
	return nil
}

func (f *fakeService) ReadAll(_ context.Context, id, _ string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("read"); err != nil {
		return nil, err
	}
	out := make([][]string, len(f.rows[id]))
	for i, r := range f.rows[id] {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (f *fakeService) Update(_ context.Context, id, cell, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("update"); err != nil {
		return err
	}
	// cell is "<sheet>!D<row>"
	ref := cell[strings.LastIndex(cell, "!")+1:]
	row, err := strconv.Atoi(ref[1:])
	if err != nil || row < 1 || row > len(f.rows[id]) {
		return fmt.Errorf("bad cell %q", cell)
	}
	r := f.rows[id][row-1]
	for len(r) < 4 {
		r = append(r, "")
	}
	r[3] = value
	f.rows[id][row-1] = r
	return nil
}

func (f *fakeService) Create(_ context.Context, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.called("create"); err != nil {
		return "", err
	}
	f.nextID++
	return fmt.Sprintf("sheet-%d", f.nextID), nil
}

func (f *fakeService) mutations() int {
	n := 0
	for _, c := range f.calls {
		if c == "append" || c == "update" || c == "create" {
			n++
		}
	}
	return n
}
