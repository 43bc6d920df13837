package testutil

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Common test errors
var (
	ErrTest        = errors.New("test error")
	ErrConstructor = errors.New("constructor error")
	ErrDisposal    = errors.New("disposal error")
)

// TestService is a basic test service
type TestService struct {
	ID        string
	CreatedAt time.Time
	Data      string
}

// NewTestService creates a new test service
func NewTestService() *TestService {
	return &TestService{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Data:      "test",
	}
}

// TestLogger is a test logger interface
type TestLogger interface {
	Log(msg string)
	GetLogs() []string
}

// TestLoggerImpl implements TestLogger
type TestLoggerImpl struct {
	logs []string
	mu   sync.Mutex
}

func NewTestLogger() TestLogger {
	return &TestLoggerImpl{}
}

func (l *TestLoggerImpl) Log(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, msg)
}

func (l *TestLoggerImpl) GetLogs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.logs...)
}

// TestDatabase is a test database
type TestDatabase struct {
	ID   string
	Name string
}

func NewTestDatabase() *TestDatabase {
	return &TestDatabase{ID: uuid.NewString(), Name: "testdb"}
}

// TestServiceWithDeps depends on a logger and a database
type TestServiceWithDeps struct {
	Logger   TestLogger
	Database *TestDatabase
}

func NewTestServiceWithDeps(logger TestLogger, db *TestDatabase) *TestServiceWithDeps {
	return &TestServiceWithDeps{Logger: logger, Database: db}
}

// GreetFn is a named function type injected by name
type GreetFn func() string

// Greeter is built from a value and a function
type Greeter struct {
	Count int
	Greet GreetFn
}

func NewGreeter(count int, greet GreetFn) *Greeter {
	return &Greeter{Count: count, Greet: greet}
}

// Message returns the greeting
func (g *Greeter) Message() string {
	return g.Greet()
}

// DisposableService counts how often it is closed
type DisposableService struct {
	ID       string
	CloseErr error
	closed   atomic.Int32
}

func NewDisposableService() *DisposableService {
	return &DisposableService{ID: uuid.NewString()}
}

func (d *DisposableService) Close() error {
	d.closed.Add(1)
	return d.CloseErr
}

// CloseCount returns the number of Close calls
func (d *DisposableService) CloseCount() int {
	return int(d.closed.Load())
}

// SimpleCloser has an error-less Close
type SimpleCloser struct {
	closed atomic.Int32
}

func (c *SimpleCloser) Close() {
	c.closed.Add(1)
}

// CloseCount returns the number of Close calls
func (c *SimpleCloser) CloseCount() int {
	return int(c.closed.Load())
}

// PanickingCloser panics when closed
type PanickingCloser struct{}

func (PanickingCloser) Close() error {
	panic("close exploded")
}

// CloseRecorder records the order in which services are closed
type CloseRecorder struct {
	mu    sync.Mutex
	order []string
}

// Record appends name to the close order
func (r *CloseRecorder) Record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, name)
}

// Order returns the recorded close order
func (r *CloseRecorder) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// RecordingCloser reports its Close to a CloseRecorder
type RecordingCloser struct {
	Name     string
	Recorder *CloseRecorder
}

func (c *RecordingCloser) Close() error {
	c.Recorder.Record(c.Name)
	return nil
}

// Operation is implemented by the operation fixtures
type Operation interface {
	Name() string
}

// OpBase is the embedded base of the operation fixtures
type OpBase struct {
	Value int
}

// SetValue sets the value, for use in post-constructors
func (o *OpBase) SetValue(v int) {
	o.Value = v
}

// OpOne embeds OpBase
type OpOne struct {
	OpBase
}

func NewOpOne() *OpOne { return &OpOne{} }

func (o *OpOne) Name() string { return "one" }

// OpTwo embeds OpBase
type OpTwo struct {
	OpBase
	Label string
}

func NewOpTwo() *OpTwo { return &OpTwo{Label: "two"} }

func (o *OpTwo) Name() string { return "two" }

// OpThree embeds OpOne, and so OpBase transitively
type OpThree struct {
	OpOne
}

func NewOpThree() *OpThree { return &OpThree{} }

// NotAnOp embeds nothing
type NotAnOp struct{}

func NewNotAnOp() *NotAnOp { return &NotAnOp{} }

// CircularServiceA and CircularServiceB depend on each other
type CircularServiceA struct {
	B *CircularServiceB
}

type CircularServiceB struct {
	A *CircularServiceA
}

func NewCircularServiceA(b *CircularServiceB) *CircularServiceA {
	return &CircularServiceA{B: b}
}

func NewCircularServiceB(a *CircularServiceA) *CircularServiceB {
	return &CircularServiceB{A: a}
}

// Counter counts constructor calls
type Counter struct {
	calls atomic.Int32
}

// NewService is a constructor that counts its calls
func (c *Counter) NewService() *TestService {
	c.calls.Add(1)
	return NewTestService()
}

// SlowService is a constructor that counts its calls and sleeps
func (c *Counter) SlowService() *TestService {
	c.calls.Add(1)
	time.Sleep(5 * time.Millisecond)
	return NewTestService()
}

// Calls returns the number of calls
func (c *Counter) Calls() int {
	return int(c.calls.Load())
}
