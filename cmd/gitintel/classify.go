package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/gitintel/internal/classify"
	"github.com/rohankatakam/gitintel/internal/errors"
	"github.com/rohankatakam/gitintel/internal/temporal"
)

var parentsFlag int

var classifyCmd = &cobra.Command{
	Use:   "classify <message>",
	Short: "Classify a single commit message and show which stage decided",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

func init() {
	classifyCmd.Flags().IntVar(&parentsFlag, "parents", 1, "parent count of the commit (2 or more is a merge)")
}

type classification struct {
	Type    temporal.CommitType `json:"type"`
	Stage   classify.Stage      `json:"stage"`
	Model   string              `json:"model,omitempty"`
	Ticket  string              `json:"ticket_ref,omitempty"`
	Subject string              `json:"subject"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	if parentsFlag < 0 {
		return errors.InvalidParam("parents", "--parents must not be negative (got %d)", parentsFlag)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	classifier, closeModel, err := newClassifier(ctx)
	if err != nil {
		return err
	}
	defer closeModel()

	message := strings.Join(args, " ")
	result := classifier.ClassifyMessage(ctx, message, parentsFlag)
	ticket, _ := classify.ExtractTicketRef(message)

	return render(cmd, classification{
		Type:    result.Type,
		Stage:   result.Stage,
		Model:   classifier.ModelName(),
		Ticket:  ticket,
		Subject: temporal.FirstLine(message),
	})
}
