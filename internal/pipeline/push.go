package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.uber.org/multierr"

	"github.com/dgallion1/wordspira/internal/artifact"
	"github.com/dgallion1/wordspira/internal/metrics"
	"github.com/dgallion1/wordspira/internal/spira"
)

// Tracker is the subset of the Spira client a push needs.
type Tracker interface {
	CreateRequirement(ctx context.Context, projectID int, req spira.RemoteRequirement) (*spira.RemoteRequirement, error)
	IndentRequirement(ctx context.Context, projectID, requirementID int) error
	OutdentRequirement(ctx context.Context, projectID, requirementID int) error
	CreateTestFolder(ctx context.Context, projectID int, folder spira.RemoteTestFolder) (*spira.RemoteTestFolder, error)
	CreateTestCase(ctx context.Context, projectID int, tc spira.RemoteTestCase) (*spira.RemoteTestCase, error)
	CreateTestStep(ctx context.Context, projectID, testCaseID int, step spira.RemoteTestStep) (*spira.RemoteTestStep, error)
	UploadDocument(ctx context.Context, projectID int, doc spira.RemoteDocument) (*spira.RemoteDocument, error)
}

// ErrFolderUnavailable fails test cases whose folder could not be created.
var ErrFolderUnavailable = errors.New("test folder unavailable")

// ArtifactError names the artifact a tracker call failed on.
type ArtifactError struct {
	Name string
	Err  error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("The request to the API has failed on the Artifact: '%s'. All, if any previous Artifacts should be in Spira.", e.Name)
}

func (e *ArtifactError) Unwrap() error {
	return e.Err
}

// Artifact kinds reported in results.
const (
	KindRequirement = "requirement"
	KindFolder      = "test_folder"
	KindTestCase    = "test_case"
	KindTestStep    = "test_step"
	KindAttachment  = "attachment"
)

// Result is the outcome of one artifact.
type Result struct {
	Kind string
	Name string
	ID   int
	Err  error
}

// Report collects every result of a push. Err combines the failures.
type Report struct {
	Results []Result
	Err     error
}

// Failed counts failed top-level artifacts.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil && (res.Kind == KindRequirement || res.Kind == KindTestCase) {
			n++
		}
	}
	return n
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	if res.Err != nil {
		r.Err = multierr.Append(r.Err, res.Err)
	}
	metrics.Artifact(res.Kind, res.Err == nil)
}

// Pusher sends assembled artifacts to the tracker one call at a time.
// A failed call fails its artifact only; the rest of the queue continues.
type Pusher struct {
	tracker           Tracker
	projectID         int
	requirementTypeID int
	log               *slog.Logger

	// OnProgress is called after every top-level artifact.
	OnProgress func(current, total int)
	// OnFailure is called once per failed artifact.
	OnFailure func(err *ArtifactError)
}

func NewPusher(tracker Tracker, projectID, requirementTypeID int, log *slog.Logger) *Pusher {
	if requirementTypeID <= 0 {
		requirementTypeID = spira.DefaultRequirementTypeID
	}
	return &Pusher{
		tracker:           tracker,
		projectID:         projectID,
		requirementTypeID: requirementTypeID,
		log:               log,
	}
}

func (p *Pusher) progress(current, total int) {
	if p.OnProgress != nil {
		p.OnProgress(current, total)
	}
}

func (p *Pusher) fail(rep *Report, kind, name string, err error) {
	ae := &ArtifactError{Name: name, Err: err}
	p.log.Error("artifact push failed", "kind", kind, "artifact", name, "error", err)
	rep.add(Result{Kind: kind, Name: name, Err: ae})
	if p.OnFailure != nil {
		p.OnFailure(ae)
	}
}

// PushRequirements creates requirements in order and indents or outdents
// each one by the difference to the level reached by the one before.
func (p *Pusher) PushRequirements(ctx context.Context, reqs []artifact.Requirement) Report {
	var rep Report
	prevLevel := 0
	for i, req := range reqs {
		created, err := p.tracker.CreateRequirement(ctx, p.projectID, spira.RemoteRequirement{
			Name:              req.Name,
			Description:       req.Description,
			RequirementTypeID: p.requirementTypeID,
		})
		if err != nil {
			p.fail(&rep, KindRequirement, req.Name, err)
			p.progress(i+1, len(reqs))
			continue
		}

		level, err := p.move(ctx, created.RequirementID, prevLevel, req.IndentLevel)
		prevLevel = level
		if err != nil {
			p.fail(&rep, KindRequirement, req.Name, err)
		} else {
			rep.add(Result{Kind: KindRequirement, Name: req.Name, ID: created.RequirementID})
		}

		for _, img := range req.Images {
			p.attach(ctx, &rep, img.Filename, img.Base64, created.RequirementID, spira.ArtifactTypeRequirement)
		}
		p.progress(i+1, len(reqs))
	}
	return rep
}

// move issues |to-from| indent or outdent calls and returns the level
// actually reached.
func (p *Pusher) move(ctx context.Context, id, from, to int) (int, error) {
	level := from
	for level < to {
		if err := p.tracker.IndentRequirement(ctx, p.projectID, id); err != nil {
			return level, err
		}
		level++
	}
	for level > to {
		if err := p.tracker.OutdentRequirement(ctx, p.projectID, id); err != nil {
			return level, err
		}
		level--
	}
	return level, nil
}

func (p *Pusher) attach(ctx context.Context, rep *Report, filename, data string, artifactID, artifactType int) {
	_, err := p.tracker.UploadDocument(ctx, p.projectID, spira.RemoteDocument{
		FilenameOrURL:     filename,
		BinaryData:        data,
		AttachedArtifacts: []spira.ArtifactLink{{ArtifactID: artifactID, ArtifactTypeID: artifactType}},
	})
	if err != nil {
		p.log.Warn("attachment upload failed", "file", filename, "artifact_id", artifactID, "error", err)
		rep.add(Result{Kind: KindAttachment, Name: filename, Err: err})
		return
	}
	rep.add(Result{Kind: KindAttachment, Name: filename, ID: artifactID})
}

// PushTestCases creates each folder once, on first use, then the test case
// and its steps in order.
func (p *Pusher) PushTestCases(ctx context.Context, suite *artifact.TestSuite) Report {
	var rep Report
	descriptions := make(map[string]string, len(suite.Folders))
	for _, f := range suite.Folders {
		if _, ok := descriptions[f.Name]; !ok {
			descriptions[f.Name] = f.Description
		}
	}
	folders := make(map[string]int)
	failedFolders := make(map[string]error)

	total := len(suite.TestCases)
	for i, tc := range suite.TestCases {
		var folderID *int
		if tc.FolderName != "" {
			id, err := p.folder(ctx, &rep, tc.FolderName, descriptions[tc.FolderName], folders, failedFolders)
			if err != nil {
				p.fail(&rep, KindTestCase, tc.Name, fmt.Errorf("%w: %q: %v", ErrFolderUnavailable, tc.FolderName, err))
				p.progress(i+1, total)
				continue
			}
			folderID = &id
		}

		created, err := p.tracker.CreateTestCase(ctx, p.projectID, spira.RemoteTestCase{
			Name:             tc.Name,
			Description:      tc.Description,
			TestCaseFolderID: folderID,
		})
		if err != nil {
			p.fail(&rep, KindTestCase, tc.Name, err)
			p.progress(i+1, total)
			continue
		}
		rep.add(Result{Kind: KindTestCase, Name: tc.Name, ID: created.TestCaseID})

		for n, step := range tc.Steps {
			name := fmt.Sprintf("%s step %d", tc.Name, n+1)
			s, err := p.tracker.CreateTestStep(ctx, p.projectID, created.TestCaseID, spira.RemoteTestStep{
				Description:    step.Description,
				SampleData:     step.SampleData,
				ExpectedResult: step.ExpectedResult,
			})
			if err != nil {
				p.fail(&rep, KindTestStep, name, err)
				continue
			}
			rep.add(Result{Kind: KindTestStep, Name: name, ID: s.TestStepID})
		}
		p.progress(i+1, total)
	}
	return rep
}

func (p *Pusher) folder(ctx context.Context, rep *Report, name, desc string, created map[string]int, failed map[string]error) (int, error) {
	if id, ok := created[name]; ok {
		return id, nil
	}
	if err, ok := failed[name]; ok {
		return 0, err
	}
	f, err := p.tracker.CreateTestFolder(ctx, p.projectID, spira.RemoteTestFolder{Name: name, Description: desc})
	if err != nil {
		failed[name] = err
		p.fail(rep, KindFolder, name, err)
		return 0, err
	}
	created[name] = f.TestCaseFolderID
	rep.add(Result{Kind: KindFolder, Name: name, ID: f.TestCaseFolderID})
	return f.TestCaseFolderID, nil
}
