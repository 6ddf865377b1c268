// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent provides demo task processors served by the example
// binaries and exercised by the scenario tests.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-a2a/taskcore"
	"github.com/go-a2a/taskcore/server"
)

// Session keys used to carry a half-specified conversion across a
// clarification round-trip.
const (
	sessionKeyPendingAmount = "currency.pending_amount"
	sessionKeyPendingFrom   = "currency.pending_from"
)

// unitsPerUSD is a fixed demo rate table. Cross rates between two
// non-USD currencies are derived through USD.
var unitsPerUSD = map[string]float64{
	"USD": 1,
	"EUR": 0.92,
	"GBP": 0.77,
	"JPY": 151.72,
	"CAD": 1.35,
	"AUD": 1.48,
	"CHF": 0.89,
	"CNY": 7.23,
	"INR": 83.45,
	"BRL": 5.05,
	"ZAR": 18.32,
}

var (
	amountPattern   = regexp.MustCompile(`\d+(?:\.\d+)?`)
	currencyPattern = regexp.MustCompile(`\b[A-Za-z]{3}\b`)
)

// CurrencyProcessor converts amounts between currencies using a fixed
// rate table. When the request names only one currency it pauses the
// task in input-required and asks for the target; the follow-up message
// completes the conversion.
type CurrencyProcessor struct {
	logger *slog.Logger
}

// NewCurrencyProcessor creates a new CurrencyProcessor.
func NewCurrencyProcessor(logger *slog.Logger) *CurrencyProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &CurrencyProcessor{logger: logger}
}

// Process implements [server.TaskProcessor].
func (p *CurrencyProcessor) Process(ctx context.Context, req *server.ProcessRequest, updater *server.TaskUpdater) error {
	amount, codes := parseConversation(req.History)

	if pending, ok := p.resolvePending(req, codes); ok {
		amount, codes = pending.amount, []string{pending.from, codes[0]}
	}

	switch len(codes) {
	case 0:
		return updater.RequireInput(ctx,
			`I can help with currency conversion. Tell me an amount and the currencies, for example "Convert 100 USD to EUR".`)
	case 1:
		p.stashPending(req, amount, codes[0])
		return updater.RequireInput(ctx,
			fmt.Sprintf("Which currency would you like to convert %s %s to?", formatAmount(amount), codes[0]))
	}

	from, to := codes[0], codes[1]
	rate := unitsPerUSD[to] / unitsPerUSD[from]
	converted := amount * rate

	p.logger.InfoContext(ctx, "converted currency",
		slog.String("a2a.task_id", req.TaskID),
		slog.String("from", from),
		slog.String("to", to),
		slog.Float64("amount", amount))

	p.clearPending(req)

	artifact, err := taskcore.NewArtifact("conversion",
		taskcore.NewTextPart(fmt.Sprintf(
			"Based on the current exchange rate, %s %s is equivalent to %.2f %s. The exchange rate is 1 %s = %.5f %s.",
			formatAmount(amount), from, converted, to, from, rate, to)),
		taskcore.NewDataPart(map[string]any{
			"amount": amount,
			"from":   from,
			"to":     to,
			"rate":   rate,
			"result": converted,
		}))
	if err != nil {
		return err
	}
	artifact.LastChunk = true
	if err := updater.AddArtifact(ctx, artifact); err != nil {
		return err
	}
	return updater.Complete(ctx)
}

type pendingConversion struct {
	amount float64
	from   string
}

// resolvePending resolves a one-currency follow-up against the
// conversion stashed by an earlier clarification in the same session.
func (p *CurrencyProcessor) resolvePending(req *server.ProcessRequest, codes []string) (pendingConversion, bool) {
	if req.Session == nil || len(codes) != 1 {
		return pendingConversion{}, false
	}
	from, ok := req.Session.Get(sessionKeyPendingFrom)
	if !ok {
		return pendingConversion{}, false
	}
	fromCode, ok := from.(string)
	if !ok || fromCode == codes[0] {
		return pendingConversion{}, false
	}
	amount := 1.0
	if v, ok := req.Session.Get(sessionKeyPendingAmount); ok {
		if f, ok := v.(float64); ok {
			amount = f
		}
	}
	return pendingConversion{amount: amount, from: fromCode}, true
}

func (p *CurrencyProcessor) stashPending(req *server.ProcessRequest, amount float64, from string) {
	if req.Session == nil {
		return
	}
	req.Session.Set(sessionKeyPendingAmount, amount)
	req.Session.Set(sessionKeyPendingFrom, from)
}

func (p *CurrencyProcessor) clearPending(req *server.ProcessRequest) {
	if req.Session == nil {
		return
	}
	req.Session.Delete(sessionKeyPendingAmount)
	req.Session.Delete(sessionKeyPendingFrom)
}

// parseConversation extracts the amount and the currency codes named
// across the user messages of a task, in order of first mention. The
// amount defaults to 1 when no number appears.
func parseConversation(history []*taskcore.Message) (float64, []string) {
	amount := 1.0
	amountSet := false
	var codes []string
	seen := make(map[string]bool)

	for _, msg := range history {
		if msg.Role != taskcore.RoleUser {
			continue
		}
		text := msg.Text()

		if !amountSet {
			if m := amountPattern.FindString(text); m != "" {
				if f, err := strconv.ParseFloat(m, 64); err == nil {
					amount = f
					amountSet = true
				}
			}
		}

		for _, word := range currencyPattern.FindAllString(text, -1) {
			code := strings.ToUpper(word)
			if _, supported := unitsPerUSD[code]; supported && !seen[code] {
				seen[code] = true
				codes = append(codes, code)
			}
		}
	}
	return amount, codes
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
