package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/mtr-normalizer/internal/common"
	"github.com/Veraticus/mtr-normalizer/internal/model"
	"github.com/Veraticus/mtr-normalizer/internal/okpd2"
	"github.com/Veraticus/mtr-normalizer/internal/service"
)

// CodeAdvisor asks the model for OKPD2 codes. It implements
// service.CandidateSource and is meant to be used as a finder advisor.
type CodeAdvisor struct {
	client Client
	logger *slog.Logger
	retry  service.RetryOptions
}

// NewCodeAdvisor creates an advisor.
func NewCodeAdvisor(client Client, retry service.RetryOptions, logger *slog.Logger) *CodeAdvisor {
	return &CodeAdvisor{client: client, retry: retry, logger: common.LoggerOrDefault(logger)}
}

// FindCandidates implements service.CandidateSource. Codes with an invalid
// format are dropped.
func (a *CodeAdvisor) FindCandidates(ctx context.Context, terms string) ([]model.Candidate, error) {
	var content string
	err := common.WithRetry(ctx, func() error {
		var err error
		content, err = a.client.Complete(ctx, Request{System: codesSystem, Prompt: buildCodesPrompt(terms)})
		return err
	}, a.retry)
	if err != nil {
		return nil, fmt.Errorf("okpd2 advice: %w", err)
	}

	codes, err := parseCodes(content)
	if err != nil {
		return nil, fmt.Errorf("okpd2 advice: %w", err)
	}

	candidates := make([]model.Candidate, 0, len(codes))
	for _, c := range codes {
		code := strings.TrimSpace(c.Code)
		if !okpd2.ValidCode(code) {
			a.logger.Debug("dropping invalid OKPD2 code from model", "code", c.Code)
			continue
		}
		candidates = append(candidates, model.Candidate{
			Code:  code,
			Name:  strings.TrimSpace(c.Name),
			Level: okpd2.CodeLevel(code),
		})
	}
	return candidates, nil
}
