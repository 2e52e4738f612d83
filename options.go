/*
 * Copyright 2022 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package gcflow

import (
	"fmt"

	"github.com/cloudwego/gcflow/internal/instr"
	"github.com/cloudwego/gcflow/internal/opts"
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// WithPointerSize sets the word size of the target platform in bytes.
//
// The pointer size decides which integer types may share a temporary, and
// how many words an allocation of a given size spans.
//
// The default value of this option is "8".
func WithPointerSize(size int) Option {
	if size != 2 && size != 4 && size != 8 {
		panic(fmt.Sprintf("gcflow: invalid pointer size: %d", size))
	} else {
		return func(o *opts.Options) { o.Platform.PointerSize = size }
	}
}

// WithMaxIterations caps the number of rounds any dataflow fixpoint may take.
// Running out of rounds makes construction fail with an IterationLimit error.
//
// Set this option to "0" disables this limit.
//
// The default value of this option is "0".
func WithMaxIterations(n int) Option {
	if n < 0 {
		panic(fmt.Sprintf("gcflow: invalid iteration limit: %d", n))
	} else {
		return func(o *opts.Options) { o.MaxIterations = n }
	}
}

// WithTable names the allocation and store instructions the optimizer may
// substitute for one another. Each pair must have the same stack shape.
func WithTable(alloc string, allocOnly string, checked string, unchecked string) Option {
	if _, err := instr.TableOf(alloc, allocOnly, checked, unchecked); err != nil {
		panic(fmt.Sprintf("gcflow: invalid replacement table: %s", err))
	} else {
		return func(o *opts.Options) {
			o.Platform.Allocate = alloc
			o.Platform.AllocateOnly = allocOnly
			o.Platform.CheckedStore = checked
			o.Platform.UncheckedStore = unchecked
		}
	}
}

// WithWriteBarrierElision turns the removal of redundant write barriers on
// or off. It is on by default.
func WithWriteBarrierElision(v bool) Option {
	return func(o *opts.Options) { o.Optimizer.WriteBarriers = v }
}

// WithInitMarkerFusion turns the pairing of allocations with their
// FULLY_INITIALIZED markers on or off. It is on by default.
func WithInitMarkerFusion(v bool) Option {
	return func(o *opts.Options) { o.Optimizer.InitMarkers = v }
}

// WithFixedInitElision turns the removal of zero-initialization for objects
// whose words are all stored explicitly on or off. It is on by default.
func WithFixedInitElision(v bool) Option {
	return func(o *opts.Options) { o.Optimizer.FixedInitialization = v }
}

// WithConfig replaces every option with the ones loaded from a TOML file.
// Options given after it still apply on top.
func WithConfig(cfg opts.Options) Option {
	return func(o *opts.Options) { *o = cfg }
}

// LoadConfig reads a TOML configuration file, see opts.Options for the
// layout. Keys missing from the file keep their default values.
func LoadConfig(path string) (Option, error) {
	cfg, err := opts.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if _, err = TableOf(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Log.Verbosity > 0 {
		ConfigureLogging(cfg.Log.Verbosity)
	}
	return WithConfig(cfg), nil
}

// SetPointerSize sets the default pointer size for all routines from now on.
//
// This value can also be configured with the `GCFLOW_POINTER_SIZE`
// environment variable.
//
// Returns the old opts.PointerSize value.
func SetPointerSize(size int) int {
	size, opts.PointerSize = opts.PointerSize, size
	return size
}

// SetMaxIterations sets the default iteration limit for all routines from
// now on.
//
// This value can also be configured with the `GCFLOW_MAX_ITERATIONS`
// environment variable.
//
// Returns the old opts.MaxIterations value.
func SetMaxIterations(n int) int {
	n, opts.MaxIterations = opts.MaxIterations, n
	return n
}
