// Package main demonstrates embedding the VM runtime directly, the way
// a host application would: create a Runtime, hand it a function to
// run as a fiber, and observe completion through its callbacks.
package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gitrdm/availcore/levelone"
	"github.com/gitrdm/availcore/object"
	"github.com/gitrdm/availcore/runtime"
	"github.com/gitrdm/availcore/values"
)

// noModuleLoader resolves nothing; this demo never loads a module by
// name, it builds its RawFunctions directly.
type noModuleLoader struct{}

func (noModuleLoader) Resolve(name string) (io.Reader, error) {
	return nil, fmt.Errorf("no module named %q", name)
}

func main() {
	fmt.Println("=== AvailVM Embedding Demo ===")
	fmt.Println()

	primitiveAdd()
	tupleConcat()
	concurrentFibers()
}

// primitiveAdd runs a RawFunction whose declared primitive adds its two
// arguments, with no nybblecode body at all.
func primitiveAdd() {
	fmt.Println("1. Primitive-backed function (3 + 4):")

	rt, err := runtime.Create(noModuleLoader{}, runtime.Config{WorkerCount: 2})
	if err != nil {
		fmt.Println("   runtime.Create failed:", err)
		return
	}
	defer rt.Shutdown(context.Background())

	code := values.NewRawFunction(nil, nil, levelone.PrimNumberAdd, 2, 0, nil)
	fn := values.NewFunction(code, nil)
	args := []*object.Object{values.NewInt64(3).Object(), values.NewInt64(4).Object()}

	done := make(chan *object.Object, 1)
	_, err = rt.RunFunction(fn, args, func(result *object.Object) {
		done <- result
	}, func(err error) {
		fmt.Println("   fiber failed:", err)
		done <- nil
	})
	if err != nil {
		fmt.Println("   RunFunction failed:", err)
		return
	}

	select {
	case result := <-done:
		fmt.Printf("   fiber completed, result = %d\n", values.WrapNumber(result).AsInt64())
	case <-time.After(2 * time.Second):
		fmt.Println("   fiber never completed")
	}
	fmt.Println()
}

// tupleConcat runs a RawFunction whose declared primitive concatenates
// two object tuples.
func tupleConcat() {
	fmt.Println("2. Primitive-backed tuple concatenation:")

	rt, err := runtime.Create(noModuleLoader{}, runtime.Config{WorkerCount: 2})
	if err != nil {
		fmt.Println("   runtime.Create failed:", err)
		return
	}
	defer rt.Shutdown(context.Background())

	code := values.NewRawFunction(nil, nil, levelone.PrimTupleConcat, 2, 0, nil)
	fn := values.NewFunction(code, nil)

	left := values.NewObjectTuple([]*object.Object{values.NewInt64(1).Object(), values.NewInt64(2).Object()})
	right := values.NewObjectTuple([]*object.Object{values.NewInt64(3).Object()})
	args := []*object.Object{left.Object(), right.Object()}

	done := make(chan *object.Object, 1)
	_, err = rt.RunFunction(fn, args, func(result *object.Object) {
		done <- result
	}, func(err error) {
		fmt.Println("   fiber failed:", err)
		done <- nil
	})
	if err != nil {
		fmt.Println("   RunFunction failed:", err)
		return
	}

	select {
	case result := <-done:
		fmt.Printf("   fiber completed, result length = %d\n", values.WrapTuple(result).Length())
	case <-time.After(2 * time.Second):
		fmt.Println("   fiber never completed")
	}
	fmt.Println()
}

// concurrentFibers spawns several empty-bodied fibers and lets the
// runtime's scheduler run them to completion, demonstrating that one
// Runtime hosts many fibers at once.
func concurrentFibers() {
	fmt.Println("3. Concurrent fibers:")

	rt, err := runtime.Create(noModuleLoader{}, runtime.Config{WorkerCount: 4})
	if err != nil {
		fmt.Println("   runtime.Create failed:", err)
		return
	}
	defer rt.Shutdown(context.Background())

	const fiberCount = 8
	done := make(chan struct{}, fiberCount)

	code := values.NewRawFunction(nil, nil, 0, 0, 0, nil)
	for i := 0; i < fiberCount; i++ {
		fn := values.NewFunction(code, nil)
		_, err := rt.RunFunction(fn, nil, func(*object.Object) { done <- struct{}{} }, func(error) { done <- struct{}{} })
		if err != nil {
			fmt.Println("   RunFunction failed:", err)
			return
		}
	}

	completed := 0
	for completed < fiberCount {
		select {
		case <-done:
			completed++
		case <-time.After(2 * time.Second):
			fmt.Printf("   only %d/%d fibers completed\n", completed, fiberCount)
			return
		}
	}
	fmt.Printf("   all %d fibers completed, %d fiber IDs tracked\n", fiberCount, len(rt.Fibers()))
	fmt.Println()
}
