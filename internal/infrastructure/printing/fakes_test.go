package printing

import (
	"context"
	"sync"
)

// fakeRunner records every invocation and replays a canned result
type fakeRunner struct {
	mu     sync.Mutex
	calls  []fakeCall
	result CommandResult
	err    error
	// block waits for ctx to finish before returning
	block bool
	// onRun sees each invocation while it is running
	onRun func(name string, args []string)
}

type fakeCall struct {
	name string
	args []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{name: name, args: append([]string(nil), args...)})
	f.mu.Unlock()

	if f.onRun != nil {
		f.onRun(name, args)
	}
	if f.block {
		<-ctx.Done()
		return CommandResult{ExitCode: -1}, ctx.Err()
	}
	return f.result, f.err
}

func (f *fakeRunner) lastScript() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	args := f.calls[len(f.calls)-1].args
	return args[len(args)-1]
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
