package plugin

import (
	"context"
	"fmt"
	"reflect"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// call invokes fn with args. A leading context.Context parameter receives ctx
// and a trailing error result is returned as the error; any other results are
// returned in order.
func call(ctx context.Context, fn any, args []any) ([]any, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("%w: %T", ErrNotCallable, fn)
	}
	t := v.Type()

	in := make([]reflect.Value, 0, t.NumIn())
	first := 0
	if t.NumIn() > 0 && t.In(0) == contextType {
		in = append(in, reflect.ValueOf(&ctx).Elem())
		first = 1
	}

	fixed := t.NumIn() - first
	if t.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, fmt.Errorf("%w: %s wants at least %d arguments, got %d", ErrSignature, t, fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, fmt.Errorf("%w: %s wants %d arguments, got %d", ErrSignature, t, fixed, len(args))
	}

	for i, arg := range args {
		var pt reflect.Type
		if t.IsVariadic() && i >= fixed {
			pt = t.In(t.NumIn() - 1).Elem()
		} else {
			pt = t.In(first + i)
		}
		av, err := argValue(arg, pt)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d of %s: %v", ErrSignature, i, t, err)
		}
		in = append(in, av)
	}

	out := v.Call(in)

	var err error
	if n := len(out); n > 0 && t.Out(n-1) == errorType {
		if e := out[n-1].Interface(); e != nil {
			err = e.(error)
		}
		out = out[:n-1]
	}
	results := make([]any, len(out))
	for i, o := range out {
		results[i] = o.Interface()
	}
	return results, err
}

func argValue(arg any, pt reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch pt.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(pt), nil
		}
		return reflect.Value{}, fmt.Errorf("nil is not assignable to %s", pt)
	}
	av := reflect.ValueOf(arg)
	if !av.Type().AssignableTo(pt) {
		return reflect.Value{}, fmt.Errorf("%s is not assignable to %s", av.Type(), pt)
	}
	return av, nil
}
