package main

import (
	"fmt"
	"io"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/wordspira/internal/pipeline"
)

type requirementView struct {
	Name        string   `yaml:"name"`
	Indent      int      `yaml:"indent"`
	Description string   `yaml:"description,omitempty"`
	Images      []string `yaml:"images,omitempty"`
}

type stepView struct {
	Description    string `yaml:"description"`
	ExpectedResult string `yaml:"expected_result,omitempty"`
	SampleData     string `yaml:"sample_data,omitempty"`
}

type testCaseView struct {
	Name        string     `yaml:"name"`
	Folder      string     `yaml:"folder,omitempty"`
	Description string     `yaml:"description,omitempty"`
	Steps       []stepView `yaml:"steps,omitempty"`
}

type folderView struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

type issueView struct {
	TestCase string `yaml:"test_case,omitempty"`
	Reason   string `yaml:"reason"`
}

type planView struct {
	Kind         string            `yaml:"kind"`
	Mapping      []string          `yaml:"mapping"`
	Requirements []requirementView `yaml:"requirements,omitempty"`
	Folders      []folderView      `yaml:"folders,omitempty"`
	TestCases    []testCaseView    `yaml:"test_cases,omitempty"`
	Issues       []issueView       `yaml:"issues,omitempty"`
}

func previewCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "preview FILE",
		Short: "Print the artifacts a push would create, as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := opts.plan(args[0])
			if err != nil {
				return err
			}
			return writePreview(cmd.OutOrStdout(), plan)
		},
	}
}

// writePreview renders plan as YAML with descriptions converted to Markdown.
func writePreview(w io.Writer, plan *pipeline.Plan) error {
	conv := md.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())
	markdown := func(html string) (string, error) {
		if strings.TrimSpace(html) == "" {
			return "", nil
		}
		out, err := conv.ConvertString(html)
		if err != nil {
			return "", fmt.Errorf("convert description: %w", err)
		}
		return strings.TrimSpace(out), nil
	}

	view := planView{Kind: plan.Kind.Name(), Mapping: plan.Map.Roles[:]}
	for _, r := range plan.Requirements {
		desc, err := markdown(r.Description)
		if err != nil {
			return err
		}
		rv := requirementView{Name: r.Name, Indent: r.IndentLevel, Description: desc}
		for _, img := range r.Images {
			rv.Images = append(rv.Images, img.Filename)
		}
		view.Requirements = append(view.Requirements, rv)
	}
	if plan.Suite != nil {
		for _, f := range plan.Suite.Folders {
			desc, err := markdown(f.Description)
			if err != nil {
				return err
			}
			view.Folders = append(view.Folders, folderView{Name: f.Name, Description: desc})
		}
		for _, tc := range plan.Suite.TestCases {
			desc, err := markdown(tc.Description)
			if err != nil {
				return err
			}
			tv := testCaseView{Name: tc.Name, Folder: tc.FolderName, Description: desc}
			for _, s := range tc.Steps {
				tv.Steps = append(tv.Steps, stepView{
					Description:    s.Description,
					ExpectedResult: s.ExpectedResult,
					SampleData:     s.SampleData,
				})
			}
			view.TestCases = append(view.TestCases, tv)
		}
		for _, is := range plan.Suite.Issues {
			view.Issues = append(view.Issues, issueView{TestCase: is.TestCase, Reason: is.Reason})
		}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(view); err != nil {
		return err
	}
	return enc.Close()
}
