package app

import (
	"context"
	"sync"
)

// fakeDS is a scriptable DataService for unit tests. Unset hooks return
// empty results.
type fakeDS struct {
	mu    sync.Mutex
	calls []string

	queryFn     func(table string, spec QuerySpec) ([]Row, error)
	countFn     func(table string, filter Filter) (int, error)
	findOneFn   func(table string, filter Filter) (Row, bool, error)
	insertFn    func(table string, row Row) error
	deleteFn    func(table string, filter Filter) error
	subscribeFn func(table string, filter Filter, handler func(Event)) (Subscription, error)
	storeBlobFn func(bucket, name string, data []byte) (string, error)
}

func (f *fakeDS) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeDS) callCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeDS) Query(_ context.Context, table string, spec QuerySpec) ([]Row, error) {
	f.record("query:" + table)
	if f.queryFn == nil {
		return nil, nil
	}
	return f.queryFn(table, spec)
}

func (f *fakeDS) Count(_ context.Context, table string, filter Filter) (int, error) {
	f.record("count:" + table)
	if f.countFn == nil {
		return 0, nil
	}
	return f.countFn(table, filter)
}

func (f *fakeDS) FindOne(_ context.Context, table string, filter Filter) (Row, bool, error) {
	f.record("findone:" + table)
	if f.findOneFn == nil {
		return nil, false, nil
	}
	return f.findOneFn(table, filter)
}

func (f *fakeDS) Insert(_ context.Context, table string, row Row) error {
	f.record("insert:" + table)
	if f.insertFn == nil {
		return nil
	}
	return f.insertFn(table, row)
}

func (f *fakeDS) Delete(_ context.Context, table string, filter Filter) error {
	f.record("delete:" + table)
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(table, filter)
}

func (f *fakeDS) Subscribe(_ context.Context, table string, filter Filter, handler func(Event)) (Subscription, error) {
	f.record("subscribe:" + table)
	if f.subscribeFn == nil {
		return nopSub{}, nil
	}
	return f.subscribeFn(table, filter, handler)
}

func (f *fakeDS) StoreBlob(_ context.Context, bucket, name string, data []byte) (string, error) {
	f.record("storeblob:" + bucket)
	if f.storeBlobFn == nil {
		return "blob://" + bucket + "/" + name, nil
	}
	return f.storeBlobFn(bucket, name, data)
}

type nopSub struct{}

func (nopSub) Close() error { return nil }
