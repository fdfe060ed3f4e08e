// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"regexp"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/homology/analysis"
	"github.com/grailbio/homology/store"
	"v.io/x/lib/cmdline"
)

// commonFlags are shared by every command.
type commonFlags struct {
	db   *string
	opts *string
}

func addCommonFlags(cmd *cmdline.Command) commonFlags {
	return commonFlags{
		db:   cmd.Flags.String("db", "", "Path of the badger database directory"),
		opts: cmd.Flags.String("opts", "", "Optional YAML file of analysis options"),
	}
}

// withStore opens the database, runs fn, and closes the database.
func (f commonFlags) withStore(fn func(st store.Store) error) (err error) {
	if *f.db == "" {
		return errors.E(errors.Invalid, "-db is required")
	}
	cfg := store.DefaultBadgerConfig
	cfg.Path = *f.db
	st, err := store.OpenBadger(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if e := st.Close(); e != nil && err == nil {
			err = e
		}
	}()
	return fn(st)
}

func (f commonFlags) analysisOpts(ctx context.Context) (analysis.Opts, error) {
	if *f.opts == "" {
		return analysis.DefaultOpts, nil
	}
	return analysis.LoadOpts(ctx, *f.opts)
}

// selectFlags choose the members a command applies to.
type selectFlags struct {
	where *string
	all   *bool
}

func addSelectFlags(cmd *cmdline.Command) selectFlags {
	return selectFlags{
		where: cmd.Flags.String("where", "", "Select members whose sequence ID matches this regular expression"),
		all:   cmd.Flags.Bool("all", false, "Select all members"),
	}
}

func (f selectFlags) selector() (analysis.Selector, error) {
	sel := analysis.Selector{AllMembers: *f.all}
	if *f.where != "" {
		re, err := regexp.Compile(*f.where)
		if err != nil {
			return sel, errors.E(errors.Invalid, err, "-where")
		}
		sel.Where = re
	}
	return sel, nil
}

func main() {
	shutdown := grail.Init()
	defer shutdown()
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(&cmdline.Command{
		Name:     "bio-homology",
		Short:    "Manage alignment trees and translate member segments between references",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdLoad(),
			newCmdSetParent(),
			newCmdUnsetParent(),
			newCmdAncestors(),
			newCmdTranslate(),
			newCmdCoverage(),
			newCmdDerive(),
			newCmdAAFreq(),
			newCmdVarScan(),
			newCmdExport(),
		},
	})
}
