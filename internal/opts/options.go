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

package opts

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Platform names the target word size and the mnemonics of the instructions
// the GC optimizer may substitute for one another.
type Platform struct {
	PointerSize    int    `toml:"pointer_size"`
	Allocate       string `toml:"allocate"`
	AllocateOnly   string `toml:"allocate_only"`
	CheckedStore   string `toml:"checked_store"`
	UncheckedStore string `toml:"unchecked_store"`
}

// Optimizer switches individual GC optimizer steps on or off.
type Optimizer struct {
	WriteBarriers       bool `toml:"write_barriers"`
	InitMarkers         bool `toml:"init_markers"`
	FixedInitialization bool `toml:"fixed_initialization"`
}

type Log struct {
	Verbosity int `toml:"verbosity"`
}

type Options struct {
	Platform      Platform  `toml:"platform"`
	Optimizer     Optimizer `toml:"optimizer"`
	Log           Log       `toml:"log"`
	MaxIterations int       `toml:"max_iterations"`
}

// CanIterate reports whether a dataflow fixpoint may run another round.
func (self *Options) CanIterate(n int) bool {
	return self.MaxIterations > n || self.MaxIterations == 0
}

func GetDefaultOptions() Options {
	return Options{
		Platform: Platform{
			PointerSize:    PointerSize,
			Allocate:       "GC_MALLOC",
			AllocateOnly:   "GC_ALLOCATE_ONLY",
			CheckedStore:   "RSTORE",
			UncheckedStore: "RSTORE_SIMPLE",
		},
		Optimizer: Optimizer{
			WriteBarriers:       true,
			InitMarkers:         true,
			FixedInitialization: true,
		},
		Log: Log{
			Verbosity: LogVerbosity,
		},
		MaxIterations: MaxIterations,
	}
}

// Parse overlays a TOML document on top of the default options.
func Parse(data []byte) (Options, error) {
	ret := GetDefaultOptions()
	if err := toml.Unmarshal(data, &ret); err != nil {
		return Options{}, fmt.Errorf("parse error: %w", err)
	}
	if err := ret.Validate(); err != nil {
		return Options{}, err
	}
	return ret, nil
}

// LoadFile reads options from a TOML file.
func LoadFile(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	ret, err := Parse(data)
	if err != nil {
		return Options{}, fmt.Errorf("%s: %w", path, err)
	}
	return ret, nil
}

func (self *Options) Validate() error {
	switch self.Platform.PointerSize {
	case 2, 4, 8:
	default:
		return fmt.Errorf("invalid pointer size: %d", self.Platform.PointerSize)
	}
	if self.MaxIterations < 0 {
		return fmt.Errorf("invalid iteration limit: %d", self.MaxIterations)
	}
	return nil
}
