/*
 * Copyright (c) 2020 Siemens AG
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy of
 * this software and associated documentation files (the "Software"), to deal in
 * the Software without restriction, including without limitation the rights to
 * use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
 * the Software, and to permit persons to whom the Software is furnished to do so,
 * subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
 * FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
 * COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
 * IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
 * CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 *
 * Author(s): Jonas Plum
 */

// Package acquisition collects the artifacts of a catalog from a device into
// a raw store.
//
// The orchestrator processes the artifacts strictly one after another,
// grouped by category. Every artifact goes through the states pending,
// resolving and transferring and ends as succeeded, failed or skipped. A
// failing artifact never stops the run.
package acquisition

import (
	"context"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/shlex"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/forensicanalysis/androidcollector/bridge"
	"github.com/forensicanalysis/androidcollector/catalog"
	"github.com/forensicanalysis/androidcollector/config"
	"github.com/forensicanalysis/androidcollector/rawstore"
)

// ConfirmFunc decides whether an artifact that requires confirmation is
// collected.
type ConfirmFunc func(spec catalog.ArtifactSpec) bool

// ConfirmAll confirms every artifact.
func ConfirmAll(catalog.ArtifactSpec) bool { return true }

// Orchestrator runs an acquisition over one bridge session.
type Orchestrator struct {
	bridge    bridge.CommandBridge
	store     *rawstore.Store
	tier      config.Tier
	caseName  string
	blockSize string
	confirm   ConfirmFunc
	events    chan<- ProgressEvent
	log       logrus.FieldLogger
	transfer  *Transfer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConfirm sets the confirmation predicate. Without one every artifact
// that requires confirmation is skipped.
func WithConfirm(confirm ConfirmFunc) Option {
	return func(o *Orchestrator) { o.confirm = confirm }
}

// WithEvents publishes progress events on ch. The channel must be drained
// while Run is active, Run does not close it.
func WithEvents(ch chan<- ProgressEvent) Option {
	return func(o *Orchestrator) { o.events = ch }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithBlockSize sets the dd block size of block copies.
func WithBlockSize(blockSize string) Option {
	return func(o *Orchestrator) { o.blockSize = blockSize }
}

// WithCase sets the case name recorded in the report.
func WithCase(name string) Option {
	return func(o *Orchestrator) { o.caseName = name }
}

// NewOrchestrator creates an orchestrator that stores into store.
func NewOrchestrator(b bridge.CommandBridge, store *rawstore.Store, tier config.Tier, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		bridge:    b,
		store:     store,
		tier:      tier,
		blockSize: "4M",
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if store != nil {
		o.transfer = NewTransfer(b, store.Fs(), tier == config.Root)
		o.transfer.Log = o.log
	}
	return o
}

// Run acquires every artifact of the catalog. The returned error is only set
// for misconfiguration detected before any transfer. Cancelling ctx marks
// all remaining artifacts as failed, the report is still complete.
func (o *Orchestrator) Run(ctx context.Context, c *catalog.Catalog) (*Report, error) {
	if c == nil || c.Len() == 0 {
		return nil, catalog.ErrEmpty
	}
	if o.store == nil || o.bridge == nil {
		return nil, errors.Wrap(ErrCatalog, "orchestrator without store or bridge")
	}
	if _, err := config.ParseBlockSize(o.blockSize); err != nil {
		return nil, errors.Wrap(ErrCatalog, err.Error())
	}

	report := &Report{
		RunID:   uuid.New().String(),
		Tier:    o.tier,
		Case:    o.caseName,
		RawRoot: o.store.Root(),
		Start:   time.Now().UTC(),
	}
	log := o.log.WithField("run", report.RunID)
	log.WithFields(logrus.Fields{"tier": o.tier, "artifacts": c.Len()}).Info("starting acquisition")

	if o.tier == config.Root {
		report.Root = o.verifyRoot(ctx)
		if !report.Root.IsRoot {
			log.WithField("output", report.Root.Output).Warn("root could not be verified, privileged artifacts will likely fail")
		}
	}

	for _, spec := range c.Ordered() {
		result := o.acquire(ctx, spec)
		observe(result)
		report.Results = append(report.Results, result)
	}
	report.End = time.Now().UTC()

	if err := report.Save(o.store.Fs()); err != nil {
		log.WithError(err).Error("could not save acquisition report")
	}

	log.WithFields(logrus.Fields{
		"succeeded": report.Count(Succeeded),
		"failed":    report.Count(Failed),
		"skipped":   report.Count(Skipped),
		"size":      humanize.Bytes(uint64(report.Bytes())),
	}).Info("acquisition finished")
	return report, nil
}

func (o *Orchestrator) emit(ctx context.Context, event ProgressEvent) {
	if o.events == nil {
		return
	}
	select {
	case o.events <- event:
	case <-ctx.Done():
		// deliver final events even after cancellation without blocking
		if event.Final() {
			select {
			case o.events <- event:
			default:
			}
		}
	}
}

func (o *Orchestrator) acquire(ctx context.Context, spec catalog.ArtifactSpec) Result { // nolint:funlen
	result := Result{
		ArtifactID: spec.ID(),
		Category:   spec.Category(),
		Mode:       spec.Mode(),
		RelPath:    spec.RelPath(),
		Start:      time.Now().UTC(),
	}
	log := o.log.WithField("artifact", spec.ID())
	event := ProgressEvent{ArtifactID: spec.ID(), Category: spec.Category()}

	finish := func(status Status, kind ErrorKind, err error) Result {
		result.Status = status
		result.ErrorKind = kind
		if err != nil {
			result.ErrorDetail = err.Error()
		}
		result.End = time.Now().UTC()

		event.Err = err
		event.Bytes = result.Bytes
		switch status {
		case Succeeded:
			event.State = StateSucceeded
			log.WithField("size", humanize.Bytes(uint64(result.Bytes))).Info("acquired")
		case Failed:
			event.State = StateFailed
			log.WithField("kind", kind).Warn(result.ErrorDetail)
		default:
			event.State = StateSkipped
			log.WithField("kind", kind).Debug("skipped")
		}
		o.emit(ctx, event)
		return result
	}

	event.State = StatePending
	o.emit(ctx, event)

	if !spec.Enabled() {
		return finish(Skipped, KindDisabled, errors.New("disabled"))
	}
	if spec.RequiresConfirmation() && (o.confirm == nil || !o.confirm(spec)) {
		return finish(Skipped, KindUnconfirmed, errors.New("confirmation denied"))
	}
	if err := ctx.Err(); err != nil {
		return finish(Failed, KindCancelled, errors.Wrap(ErrCancelled, err.Error()))
	}

	event.State = StateResolving
	o.emit(ctx, event)
	source, err := Resolve(ctx, spec.Candidates(), o.probe(spec.Mode()))
	if err != nil {
		return finish(Failed, classify(err), err)
	}
	result.Source = source
	event.Source = source

	event.State = StateTransferring
	o.emit(ctx, event)
	transferred, err := o.transferSpec(ctx, spec, source)
	if err != nil {
		var failure *TransferFailure
		if errors.As(err, &failure) {
			result.Bytes = failure.Bytes
		}
		return finish(Failed, classify(err), err)
	}

	result.Bytes = transferred.Bytes
	result.Hashes = &transferred.Hashes
	result.LocalPath = o.store.Path(spec.RelPath())
	o.record(spec, source, transferred, log)
	return finish(Succeeded, "", nil)
}

func (o *Orchestrator) probe(mode catalog.Mode) Probe {
	return func(ctx context.Context, candidate string) (bool, error) {
		var argv []string
		switch mode {
		case catalog.LogicalQuery:
			command, err := shlex.Split(candidate)
			if err != nil {
				return false, err
			}
			if len(command) == 0 {
				return false, errors.New("empty command")
			}
			argv = o.transfer.wrap([]string{"command", "-v", command[0]})
		case catalog.SingleFile:
			argv = o.transfer.wrap([]string{"test", "-r", candidate})
		case catalog.DirectoryArchive:
			argv = o.transfer.wrap([]string{"test", "-d", candidate})
		case catalog.BlockCopy:
			argv = o.transfer.wrap([]string{"test", "-b", candidate})
		default:
			return false, errors.Errorf("unknown mode %s", mode)
		}

		res, err := o.bridge.Execute(ctx, argv)
		if err != nil {
			return false, err
		}
		return res.Success(), nil
	}
}

func (o *Orchestrator) transferSpec(ctx context.Context, spec catalog.ArtifactSpec, source string) (*Transferred, error) {
	dest := spec.RelPath()
	switch spec.Mode() {
	case catalog.SingleFile:
		return o.transfer.TransferFile(ctx, source, dest)
	case catalog.DirectoryArchive:
		return o.transfer.TransferDirectoryArchive(ctx, source, dest)
	case catalog.BlockCopy:
		return o.transfer.TransferBlockDevice(ctx, source, dest, o.blockSize)
	default:
		argv, err := shlex.Split(source)
		if err != nil {
			return nil, err
		}
		return o.transfer.TransferQuery(ctx, argv, dest)
	}
}

// record adds the custody elements of a successful artifact. A failure is
// logged, the artifact itself is on disk and stays succeeded.
func (o *Orchestrator) record(spec catalog.ArtifactSpec, source string, transferred *Transferred, log logrus.FieldLogger) {
	now := rawstore.FormatTime(time.Now())

	file := rawstore.NewFile(spec.RelPath())
	file.Artifact = spec.ID()
	file.Size = float64(transferred.Bytes)
	file.Hashes = transferred.Hashes.Map()
	file.Ctime = now
	file.Mtime = now
	file.Origin = map[string]interface{}{
		"source":   source,
		"mode":     string(spec.Mode()),
		"category": string(spec.Category()),
		"tier":     string(o.tier),
	}
	if _, err := o.store.RecordFile(file); err != nil {
		log.WithError(err).Warn("could not record custody element")
		return
	}

	if spec.Mode() != catalog.LogicalQuery {
		return
	}
	process := rawstore.NewProcess()
	process.Artifact = spec.ID()
	process.Name = strings.Fields(source)[0]
	process.CommandLine = source
	process.CreatedTime = now
	process.StdoutPath = spec.RelPath()
	if _, err := o.store.InsertStruct(process); err != nil {
		log.WithError(err).Warn("could not record process element")
	}
}

// verifyRoot checks whether su grants uid 0. The outcome is informational.
func (o *Orchestrator) verifyRoot(ctx context.Context) RootVerification {
	res, err := o.bridge.Execute(ctx, bridge.Privileged([]string{"id"}))
	if err != nil {
		return RootVerification{Checked: true, Output: err.Error()}
	}
	output := strings.TrimSpace(res.Stdout + " " + res.Stderr)
	return RootVerification{
		Checked: true,
		IsRoot:  res.Success() && strings.Contains(res.Stdout, "uid=0"),
		Output:  output,
	}
}
