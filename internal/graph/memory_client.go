package graph

import (
	"context"
	"maps"
	"strings"
	"sync"
)

// ExecutedQuery captures a cypher statement and its parameters.
type ExecutedQuery struct {
	Query  string
	Params map[string]any
}

type stub struct {
	fragment string
	result   Result
	err      error
}

// MemoryClient records statements instead of running them. Reads are
// answered by stubs keyed on a statement fragment first, then from a FIFO
// queue; fragment stubs keep concurrent readers deterministic.
type MemoryClient struct {
	mu           sync.Mutex
	writes       []ExecutedQuery
	reads        []ExecutedQuery
	readQueue    []Result
	writeQueue   []Result
	stubs        []stub
	err          error
	connectivity error
	closed       bool
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{}
}

// WithError makes every subsequent statement fail with err.
func (m *MemoryClient) WithError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithConnectivityError forces VerifyConnectivity to return err.
func (m *MemoryClient) WithConnectivityError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivity = err
	return m
}

// PushReadResult queues a result for the next read no stub answers.
func (m *MemoryClient) PushReadResult(res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readQueue = append(m.readQueue, res)
}

// PushWriteResult queues a result for the next write no stub answers.
func (m *MemoryClient) PushWriteResult(res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeQueue = append(m.writeQueue, res)
}

// OnRead answers every statement containing fragment with res.
func (m *MemoryClient) OnRead(fragment string, res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, stub{fragment: fragment, result: res})
}

// FailOn makes statements containing fragment fail with err while others
// keep succeeding.
func (m *MemoryClient) FailOn(fragment string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, stub{fragment: fragment, err: err})
}

func (m *MemoryClient) ExecuteWrite(_ context.Context, cypher string, params map[string]any) (Result, error) {
	return m.record(&m.writes, &m.writeQueue, cypher, params)
}

func (m *MemoryClient) ExecuteRead(_ context.Context, cypher string, params map[string]any) (Result, error) {
	return m.record(&m.reads, &m.readQueue, cypher, params)
}

func (m *MemoryClient) record(log *[]ExecutedQuery, queue *[]Result, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return Result{}, m.err
	}
	*log = append(*log, ExecutedQuery{Query: cypher, Params: maps.Clone(params)})

	for _, s := range m.stubs {
		if strings.Contains(cypher, s.fragment) {
			return s.result, s.err
		}
	}
	if len(*queue) == 0 {
		return Result{}, nil
	}
	res := (*queue)[0]
	*queue = (*queue)[1:]
	return res, nil
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectivity
}

func (m *MemoryClient) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MemoryClient) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// WriteCalls returns a snapshot of executed write statements.
func (m *MemoryClient) WriteCalls() []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.writes...)
}

// ReadCalls returns a snapshot of executed read statements.
func (m *MemoryClient) ReadCalls() []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.reads...)
}
