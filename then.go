package task_go

// The four continuation builders below cover every shape a continuation
// function can take: it may consume or ignore the antecedent's result, and it
// may return a value or nothing. Go resolves the shape at the call site by
// the builder the caller picks; an argument type that does not match the
// antecedent's result type is a compile error.
//
// Every builder allocates a new continuation-flagged task, wires the
// antecedent as its sole initial dependency, and re-points the antecedent's
// continuation link at the new task — displacing any previous continuation,
// since a task supports at most one active continuation at a time. The
// returned handle is the strong reference; the caller owns the continuation's
// lifetime.
//
// The built work closure reads the antecedent's *current* result cell at run
// time, so a re-armed polling antecedent feeds each cycle's fresh value into
// its chain. The read does not block in practice: a continuation only fires
// after the antecedent reached Done, by which time the value is published.

// Then chains f to a. The new task's result is f applied to a's result.
func Then[T, U any](a *Task[T], f func(T) U, opts ...Option) *Task[U] {
	t := newTask[U](true, opts...)
	t.SetWork(func() {
		publish(t, f(a.Result().Get()))
	})
	wireContinuation(a, t)
	return t
}

// ThenDo chains f to a. f consumes a's result and returns nothing; the new
// task's result is Unit.
func ThenDo[T any](a *Task[T], f func(T), opts ...Option) *Task[Unit] {
	t := newTask[Unit](true, opts...)
	t.SetWork(func() {
		f(a.Result().Get())
		publish(t, Unit{})
	})
	wireContinuation(a, t)
	return t
}

// After chains f to a. f ignores a's result; the new task's result is f's
// return value.
func After[T, U any](a *Task[T], f func() U, opts ...Option) *Task[U] {
	t := newTask[U](true, opts...)
	t.SetWork(func() {
		publish(t, f())
	})
	wireContinuation(a, t)
	return t
}

// AfterDo chains f to a. f ignores a's result and returns nothing; the new
// task's result is Unit.
func AfterDo[T any](a *Task[T], f func(), opts ...Option) *Task[Unit] {
	t := newTask[Unit](true, opts...)
	t.SetWork(func() {
		f()
		publish(t, Unit{})
	})
	wireContinuation(a, t)
	return t
}

// wireContinuation registers a as t's sole initial dependency and points a's
// continuation link at t.
func wireContinuation[T, U any](a *Task[T], t *Task[U]) {
	t.AddDependencies(a)
	a.setContinuation(t.box)
}
