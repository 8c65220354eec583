// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/transsync/fleetcore/internal/logging"
	"github.com/transsync/fleetcore/internal/models"
)

const (
	// scanWindow is how far ahead the expiration scan looks.
	scanWindow = 30 * 24 * time.Hour

	// alertThresholdDays is the cutoff for pushing a high-priority alert.
	// Documents expiring further out are observed but not alerted on.
	alertThresholdDays = 7
)

// DocumentSource yields documents (licenses, insurance, technical reviews)
// that expire within the given window.
type DocumentSource interface {
	ExpiringDocuments(ctx context.Context, within time.Duration) ([]models.ExpiringDocument, error)
}

// AlertSink receives expiration alerts. *websocket.Hub satisfies it.
type AlertSink interface {
	NotifyExpirationAlert(doc models.ExpiringDocument)
}

// ExpirationChecker scans for documents nearing expiration and pushes
// alerts for the urgent ones.
type ExpirationChecker struct {
	source DocumentSource
	sink   AlertSink
	now    func() time.Time
}

// NewExpirationChecker wires a checker to its document source and alert sink.
func NewExpirationChecker(source DocumentSource, sink AlertSink) *ExpirationChecker {
	return &ExpirationChecker{
		source: source,
		sink:   sink,
		now:    time.Now,
	}
}

// Check runs one expiration scan. Every document inside the scan window is
// counted; only those within the alert threshold produce a notification.
func (c *ExpirationChecker) Check(ctx context.Context) error {
	docs, err := c.source.ExpiringDocuments(ctx, scanWindow)
	if err != nil {
		return fmt.Errorf("expiration scan failed: %w", err)
	}

	alerted := 0
	for i := range docs {
		doc := c.withDaysRemaining(docs[i])
		if doc.DaysRemaining > alertThresholdDays {
			continue
		}
		c.sink.NotifyExpirationAlert(doc)
		alerted++
	}

	logging.Info().
		Int("scanned", len(docs)).
		Int("alerted", alerted).
		Msg("expiration check completed")
	return nil
}

// withDaysRemaining fills in DaysRemaining from ExpiresAt when the source
// left it unset. Days are counted rounding up, so a document expiring in 36
// hours reports two days and an already-expired one reports zero.
func (c *ExpirationChecker) withDaysRemaining(doc models.ExpiringDocument) models.ExpiringDocument {
	if doc.DaysRemaining != 0 {
		return doc
	}
	until := doc.ExpiresAt.Sub(c.now())
	if until <= 0 {
		doc.DaysRemaining = 0
		return doc
	}
	doc.DaysRemaining = int((until + 24*time.Hour - time.Nanosecond) / (24 * time.Hour))
	return doc
}
