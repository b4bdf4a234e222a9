// The MIT License
//
// Copyright (c) 2020 Temporal Technologies Inc.  All rights reserved.
//
// Copyright (c) 2020 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package internal

import (
	"context"
	"fmt"
	"sync"
)

// WorkflowFunc is the user workflow body: given a Runtime and the raw
// encoded input bytes, it returns the raw encoded output bytes (or an
// error to fail the workflow) on eventual completion, or an unresolved
// Future-bearing suspension handled internally by the Runtime.
type WorkflowFunc func(rt *Runtime, input []byte) ([]byte, error)

// ActivityFunc is the user activity body.
type ActivityFunc func(ctx context.Context, input []byte) ([]byte, error)

type registryKey struct {
	name    string
	version int32
}

// typeKind distinguishes workflow registrations from activity
// registrations sharing the same Registry.
type typeKind int

const (
	kindWorkflow typeKind = iota
	kindActivity
)

type registration struct {
	kind     typeKind
	desc     TypeDescriptor
	workflow WorkflowFunc
	activity ActivityFunc
}

// Registry maps a (name, version) pair to the factory that implements it,
// and drives remote type registration / compatibility checking against a
// ServiceClient. It deliberately does not scan packages or decorators for
// candidate types - registration is always an explicit call.
type Registry struct {
	mu    sync.RWMutex
	types map[registryKey]*registration
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[registryKey]*registration)}
}

// RegisterWorkflow associates a TypeDescriptor with a WorkflowFunc. If
// desc.Name is empty, it is stamped with name before the descriptor is
// stored; the caller's descriptor value is never mutated, only a clone of
// it is retained, which is why stamped-name descriptors don't leak back
// into caller-held copies. Registering the same (name, version) twice
// returns an error rather than silently replacing the earlier
// registration.
func (r *Registry) RegisterWorkflow(desc TypeDescriptor, name string, fn WorkflowFunc) error {
	if desc.Name == "" {
		desc.Name = name
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := registryKey{desc.Name, desc.Version}
	if _, exists := r.types[key]; exists {
		return fmt.Errorf("workflow type %q version %d already registered", desc.Name, desc.Version)
	}
	r.types[key] = &registration{kind: kindWorkflow, desc: desc, workflow: fn}
	return nil
}

// MustRegisterWorkflow is RegisterWorkflow for package-init-time
// registration, where a duplicate registration is a programmer error
// worth failing fast on rather than propagating.
func (r *Registry) MustRegisterWorkflow(desc TypeDescriptor, name string, fn WorkflowFunc) {
	if err := r.RegisterWorkflow(desc, name, fn); err != nil {
		panic(err)
	}
}

// RegisterActivity associates a TypeDescriptor with an ActivityFunc, with
// the same name-stamping and duplicate-rejection behavior as
// RegisterWorkflow.
func (r *Registry) RegisterActivity(desc TypeDescriptor, name string, fn ActivityFunc) error {
	if desc.Name == "" {
		desc.Name = name
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := registryKey{desc.Name, desc.Version}
	if _, exists := r.types[key]; exists {
		return fmt.Errorf("activity type %q version %d already registered", desc.Name, desc.Version)
	}
	r.types[key] = &registration{kind: kindActivity, desc: desc, activity: fn}
	return nil
}

// MustRegisterActivity is RegisterActivity's panic-on-error counterpart.
func (r *Registry) MustRegisterActivity(desc TypeDescriptor, name string, fn ActivityFunc) {
	if err := r.RegisterActivity(desc, name, fn); err != nil {
		panic(err)
	}
}

// LookupWorkflow returns the WorkflowFunc registered for (name, version),
// or ok=false if nothing is registered there.
func (r *Registry) LookupWorkflow(name string, version int32) (WorkflowFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.types[registryKey{name, version}]
	if !ok || reg.kind != kindWorkflow {
		return nil, false
	}
	return reg.workflow, true
}

// LookupActivity returns the ActivityFunc registered for (name, version),
// or ok=false if nothing is registered there.
func (r *Registry) LookupActivity(name string, version int32) (ActivityFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.types[registryKey{name, version}]
	if !ok || reg.kind != kindActivity {
		return nil, false
	}
	return reg.activity, true
}

// RegisterRemote walks every registered type and, for each, either
// registers it fresh with the remote service or - if the service reports
// it already exists - fetches the remote defaults and verifies they match
// field for field. Any mismatch or hard transport failure is returned as a
// RegistrationError naming the offending type; RegisterRemote stops at the
// first failure, matching the worker-startup contract that any
// registration failure aborts startup.
func (r *Registry) RegisterRemote(ctx context.Context, svc ServiceClient) error {
	r.mu.RLock()
	regs := make([]*registration, 0, len(r.types))
	for _, reg := range r.types {
		regs = append(regs, reg)
	}
	r.mu.RUnlock()

	for _, reg := range regs {
		if err := registerOne(ctx, svc, reg); err != nil {
			return err
		}
	}
	return nil
}

func registerOne(ctx context.Context, svc ServiceClient, reg *registration) error {
	var err error
	if reg.kind == kindWorkflow {
		err = svc.RegisterWorkflowType(ctx, &RegisterWorkflowTypeRequest{Descriptor: reg.desc})
	} else {
		err = svc.RegisterActivityType(ctx, &RegisterActivityTypeRequest{Descriptor: reg.desc})
	}
	if err == nil {
		return nil
	}
	if !errIsAlreadyExists(err) {
		return &RegistrationError{TypeName: reg.desc.Name, Reason: "register RPC failed", Cause: err}
	}

	var remote TypeDescriptor
	if reg.kind == kindWorkflow {
		resp, descErr := svc.DescribeWorkflowType(ctx, &DescribeWorkflowTypeRequest{Name: reg.desc.Name, Version: reg.desc.Version})
		if descErr != nil {
			return &RegistrationError{TypeName: reg.desc.Name, Reason: "describe RPC failed", Cause: descErr}
		}
		remote = resp.Descriptor
	} else {
		resp, descErr := svc.DescribeActivityType(ctx, &DescribeActivityTypeRequest{Name: reg.desc.Name, Version: reg.desc.Version})
		if descErr != nil {
			return &RegistrationError{TypeName: reg.desc.Name, Reason: "describe RPC failed", Cause: descErr}
		}
		remote = resp.Descriptor
	}

	if field, ok := compareDescriptors(reg.desc, remote); !ok {
		return &RegistrationError{TypeName: reg.desc.Name, Reason: fmt.Sprintf("field %q does not match remote configuration", field)}
	}
	return nil
}

// compareDescriptors compares every provided (non-zero) field of local
// against the remote descriptor, returning the first mismatching field
// name on failure.
func compareDescriptors(local, remote TypeDescriptor) (string, bool) {
	if local.DefaultTaskList != "" && local.DefaultTaskList != remote.DefaultTaskList {
		return "default_task_list", false
	}
	if local.DefaultChildPolicy != ChildPolicyUnspecified && local.DefaultChildPolicy != remote.DefaultChildPolicy {
		return "default_child_policy", false
	}
	if local.DefaultStartToClose != 0 && local.DefaultStartToClose != remote.DefaultStartToClose {
		return "default_start_to_close_timeout", false
	}
	return "", true
}
