package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/wordspira/internal/artifact"
	"github.com/dgallion1/wordspira/internal/settings"
)

// ClientFactory builds a tracker client for one set of credentials.
type ClientFactory func(Credentials) Tracker

// SettingsOpener opens the settings store of one document.
type SettingsOpener func(docID string) (settings.Store, error)

// Worker processes a single push job.
type Worker struct {
	clients           ClientFactory
	openSettings      SettingsOpener
	log               *slog.Logger
	requirementTypeID int
	testOpts          artifact.TestCaseOptions
}

func NewWorker(clients ClientFactory, open SettingsOpener, log *slog.Logger, requirementTypeID int, testOpts artifact.TestCaseOptions) *Worker {
	return &Worker{
		clients:           clients,
		openSettings:      open,
		log:               log,
		requirementTypeID: requirementTypeID,
		testOpts:          testOpts,
	}
}

// Process runs the full push pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "kind", job.Kind.Name())
	data, rng, creds := job.inputs()

	// Phase 1: Parse and assemble. Nothing reaches the tracker on failure.
	job.SetStatus(StatusParsing, "parsing")
	store, err := w.openSettings(job.DocID)
	if err != nil {
		log.Error("open settings failed", "error", err)
		job.AddError(fmt.Sprintf("settings: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	job.SetStatus(StatusAssembling, "assembling")
	plan, err := Prepare(data, job.Filename, rng, job.Kind, store, w.testOpts)
	if err != nil {
		log.Error("assembly failed", "error", err)
		job.AddError(structuralMessage(err))
		job.SetStatus(StatusFailed, "assembling")
		return
	}
	job.SetFileData(nil)

	if plan.Suite != nil {
		for _, issue := range plan.Suite.Issues {
			job.AddArtifactError(issue.TestCase, issue.Reason)
		}
	}
	for _, img := range plan.Unplaced {
		log.Warn("image outside every requirement", "file", img.Filename, "line", img.LineIndex)
	}

	total := plan.Total()
	job.SetProgress(0, total)
	log.Info("assembled artifacts", "total", total)

	// Phase 2: Push, one call at a time.
	job.SetStatus(StatusPushing, "pushing")
	pusher := NewPusher(w.clients(creds), job.ProjectID, w.requirementTypeID, log)
	pusher.OnProgress = job.SetProgress
	pusher.OnFailure = func(err *ArtifactError) {
		job.AddArtifactError(err.Name, err.Error())
	}

	var rep Report
	if plan.Suite != nil {
		rep = pusher.PushTestCases(ctx, plan.Suite)
	} else {
		rep = pusher.PushRequirements(ctx, plan.Requirements)
	}

	failed := rep.Failed()
	for range failed {
		job.IncrFailed()
	}
	log.Info("push complete", "total", total, "failed", failed, "results", len(rep.Results))

	switch {
	case rep.Err == nil:
		job.SetStatus(StatusCompleted, "done")
	case failed < total:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusFailed, "pushing")
	}
}

// structuralMessage is the user-facing text for an error that blocks a push.
func structuralMessage(err error) string {
	switch {
	case errors.Is(err, artifact.ErrHierarchyInvalid):
		return "The requirement hierarchy is invalid: an indent level skips a level. Nothing was sent to Spira."
	case errors.Is(err, artifact.ErrEmptyInput):
		return "No content in the selection matches the configured styles."
	}
	return err.Error()
}
