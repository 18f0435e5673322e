package services

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"golang.org/x/text/cases"

	"github.com/appear/aiq/internal/core"
	"github.com/appear/aiq/internal/ui"
)

const solutionPrompt = "<<<     Please, specify the number of a solution which you want to use:"

// Solution is a publishing target inside the organisation.
type Solution struct {
	ID   core.ID `json:"_id,omitzero"`
	Name string  `json:"name,omitempty"`
}

func (s *Services) fetchSolutions(ctx context.Context) ([]Solution, error) {
	var solutions []Solution
	if err := s.rest.Get(ctx, s.getURL("solutions"), s.authOptions(), &solutions); err != nil {
		return nil, err
	}
	return solutions, nil
}

// selectSolution picks the solution to publish to, asking the user when more
// than one is available.
func (s *Services) selectSolution(ctx context.Context) (core.ID, error) {
	solutions, err := s.fetchSolutions(ctx)
	if err != nil {
		return core.ID{}, remoteError(err, nil)
	}

	switch len(solutions) {
	case 0:
		return core.ID{}, &Error{Kind: KindRemote, Message: MsgNoSolutions}
	case 1:
		s.printer.Info("Solution [%s] was chosen automatically as only one available.", displayName(solutions[0].Name))
		return solutions[0].ID, nil
	}

	fold := cases.Fold()
	sort.SliceStable(solutions, func(i, j int) bool {
		return fold.String(solutions[i].Name) < fold.String(solutions[j].Name)
	})

	s.printer.Info("Multiple solutions are available:")
	s.printer.Line()
	for i, solution := range solutions {
		s.printer.Raw("\t[%d] %s", i+1, displayName(solution.Name))
	}
	s.printer.Line()

	if s.prompter == nil {
		return core.ID{}, validationError(MsgInterrupted)
	}
	for {
		answer, err := s.prompter.Prompt(ctx, solutionPrompt, "1")
		if err != nil {
			if errors.Is(err, ui.ErrInterrupted) || ctx.Err() != nil {
				return core.ID{}, &Error{Kind: KindValidation, Message: MsgInterrupted, Err: err}
			}
			return core.ID{}, ioError(MsgInterrupted, err)
		}
		n, err := strconv.Atoi(answer)
		if err != nil || n < 1 || n > len(solutions) {
			continue
		}
		return solutions[n-1].ID, nil
	}
}

// displayName escapes control characters so a solution name cannot rewrite
// the terminal.
func displayName(name string) string {
	quoted := strconv.Quote(name)
	return quoted[1 : len(quoted)-1]
}
