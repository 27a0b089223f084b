package spira

// Artifact type IDs used when attaching documents.
const (
	ArtifactTypeRequirement = 1
	ArtifactTypeTestCase    = 2
)

// DefaultRequirementTypeID is the "Feature" requirement type of a stock
// Spira template.
const DefaultRequirementTypeID = 2

// Project is one entry of the projects listing.
type Project struct {
	ProjectID int    `json:"ProjectId"`
	Name      string `json:"Name"`
}

// RemoteRequirement is the body and response of requirement creation.
type RemoteRequirement struct {
	RequirementID     int    `json:"RequirementId,omitempty"`
	Name              string `json:"Name"`
	Description       string `json:"Description"`
	RequirementTypeID int    `json:"RequirementTypeId"`
	IndentLevel       string `json:"IndentLevel,omitempty"`
}

// RemoteTestFolder is the body and response of test folder creation.
type RemoteTestFolder struct {
	TestCaseFolderID int    `json:"TestCaseFolderId,omitempty"`
	Name             string `json:"Name"`
	Description      string `json:"Description,omitempty"`
}

// RemoteTestCase is the body and response of test case creation.
type RemoteTestCase struct {
	TestCaseID       int    `json:"TestCaseId,omitempty"`
	Name             string `json:"Name"`
	Description      string `json:"Description,omitempty"`
	TestCaseFolderID *int   `json:"TestCaseFolderId,omitempty"`
}

// RemoteTestStep is the body and response of test step creation.
type RemoteTestStep struct {
	TestStepID     int    `json:"TestStepId,omitempty"`
	TestCaseID     int    `json:"TestCaseId,omitempty"`
	Position       int    `json:"Position,omitempty"`
	Description    string `json:"Description"`
	SampleData     string `json:"SampleData,omitempty"`
	ExpectedResult string `json:"ExpectedResult,omitempty"`
}

// ArtifactLink attaches a document to an artifact.
type ArtifactLink struct {
	ArtifactID     int `json:"ArtifactId"`
	ArtifactTypeID int `json:"ArtifactTypeId"`
}

// RemoteDocument is the body of a file upload. BinaryData is base64.
type RemoteDocument struct {
	AttachmentID      int            `json:"AttachmentId,omitempty"`
	FilenameOrURL     string         `json:"FilenameOrUrl"`
	BinaryData        string         `json:"BinaryData,omitempty"`
	AttachedArtifacts []ArtifactLink `json:"AttachedArtifacts,omitempty"`
}
