// Package pipeline runs one join: gather, bind, validate, optimize and
// write.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/scenejoin/internal/config"
	"github.com/Faultbox/scenejoin/internal/gather"
	"github.com/Faultbox/scenejoin/internal/match"
	"github.com/Faultbox/scenejoin/internal/merge"
	"github.com/Faultbox/scenejoin/internal/model"
	"github.com/Faultbox/scenejoin/internal/optimize"
	"github.com/Faultbox/scenejoin/internal/validate"
	"github.com/Faultbox/scenejoin/pkg/archive"
)

// ErrOutputLocked reports an output path held by another run.
var ErrOutputLocked = errors.New("output is locked by another run")

// ValidationError carries the structural validation messages that blocked
// a run.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 1 {
		return "validation failed: " + e.Messages[0]
	}
	return fmt.Sprintf("validation failed with %d messages:\n  %s", len(e.Messages), strings.Join(e.Messages, "\n  "))
}

// Result summarizes a completed run.
type Result struct {
	RunID    uuid.UUID
	Output   string
	Direct   bool
	Bytes    int64
	Warnings []string
	Optimize optimize.Stats
	Merge    merge.Stats
}

// Run performs the join described by cfg. Input and validation failures
// return before the output file is created.
func Run(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	j := cfg.Join
	res := &Result{RunID: uuid.New(), Output: j.Output}
	log = log.With(zap.String("run", res.RunID.String()))

	var table *model.Table
	if len(j.Models) > 0 {
		var err error
		table, err = model.Gather(j.Models, model.Options{
			Positions:       j.Positions,
			Normals:         j.Normals,
			GenerateNormals: j.GenerateNormals,
			NoUVs:           j.NoUVs,
			ProjectName:     j.ProjectName,
			ScaleFactor:     j.ScaleFactor,
			NoLoadOpt:       j.NoLoadOpt,
			Logger:          log,
		})
		if err != nil {
			return nil, err
		}
	}
	matcher := match.New(table)

	files, err := gather.AnimFiles(j.Anims, gather.Options{NoLoadOpt: j.NoLoadOpt, Logger: log})
	if err != nil {
		return nil, err
	}
	if files.HasDuplicates() {
		log.Warn("duplicate animation inputs, ordering by file name")
		files.SortByName()
	}
	bindings, err := match.Bind(files, j.Models, j.Offsets)
	if err != nil {
		return nil, err
	}

	if table != nil && !j.ForceNoMatch {
		var msgs []string
		if j.ValidateLevel >= 1 {
			msgs = append(msgs, validate.Level1(bindings, matcher)...)
		}
		if j.ValidateLevel >= 2 {
			msgs = append(msgs, validate.Level2(bindings, matcher)...)
		}
		if len(msgs) > 0 {
			if !j.NoBlockCheck {
				return nil, &ValidationError{Messages: msgs}
			}
			for _, m := range msgs {
				log.Warn("validation", zap.String("message", m))
			}
			res.Warnings = msgs
		}
	}

	runner := &optimize.Runner{Thresholds: cfg.Optimize.Thresholds, Matcher: matcher, Logger: log}
	if res.Optimize, err = runner.Run(ctx, cfg.Optimize.Level, bindings); err != nil {
		return nil, err
	}

	lock := flock.New(j.Output + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", j.Output, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrOutputLocked, j.Output)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	w, err := archive.Create(j.Output, archive.ContainerKind(j.ContainerLevel))
	if err != nil {
		return nil, err
	}
	res.Direct = j.Direct || (len(j.Models) == 0 && len(bindings) == 1)
	if err := write(w, res, cfg, bindings, matcher, log); err != nil {
		_ = w.Abort()
		return nil, err
	}
	if err := w.Close(); err != nil {
		_ = w.Abort()
		return nil, fmt.Errorf("writing %s: %w", j.Output, err)
	}
	res.Bytes = w.BytesWritten()

	log.Info("join complete",
		zap.String("output", j.Output),
		zap.String("id", w.ID().String()),
		zap.String("size", humanize.Bytes(uint64(res.Bytes))),
		zap.Bool("direct", res.Direct))
	return res, nil
}

func write(w *archive.Writer, res *Result, cfg *config.Config, bindings []match.Binding, matcher *match.Matcher, log *zap.Logger) error {
	j := cfg.Join
	if res.Direct {
		b := bindings[0]
		var err error
		res.Merge, err = merge.Transfer(w, b.File.Root, matcher, cfg.Optimize.Thresholds.Geom(), b.Offset)
		return err
	}

	c := merge.NewComposer(w, matcher, merge.Options{
		FormNameSpaces:  j.FormNameSpaces,
		GroupByInstance: j.GroupByInstance,
		NoReplace:       j.NoReplace,
		ForceNoMatch:    j.ForceNoMatch,
		PassNoMatch:     j.PassNoMatch || matcher.Table() == nil,
		ForceJoin:       j.ForceJoin,
		RestPositions:   j.Positions,
		RestNormals:     j.Normals || j.GenerateNormals,
		Logger:          log,
	})
	err := c.Compose(bindings)
	res.Merge = c.Stats()
	return err
}
