// FleetCore - TransSync Tenant Cache and Real-Time Notification Engine
// Copyright 2026 TransSync
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/transsync/fleetcore

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/transsync/fleetcore/internal/models"
)

// expiringDocumentsQuery collects every dated document a fleet must keep
// current: driver licenses, vehicle insurance, and technical reviews. Each
// branch yields the same shape so the scan loop stays generic.
const expiringDocumentsQuery = `
SELECT 'Driver license' AS document_type,
       CONCAT(d.first_name, ' ', d.last_name) AS holder,
       d.license_expires_at AS expires_at,
       d.tenant_id AS tenant_id
FROM drivers d
WHERE d.license_expires_at BETWEEN NOW() AND DATE_ADD(NOW(), INTERVAL ? DAY)
UNION ALL
SELECT 'Vehicle insurance' AS document_type,
       v.plate AS holder,
       v.insurance_expires_at AS expires_at,
       v.tenant_id AS tenant_id
FROM vehicles v
WHERE v.insurance_expires_at BETWEEN NOW() AND DATE_ADD(NOW(), INTERVAL ? DAY)
UNION ALL
SELECT 'Technical review' AS document_type,
       v.plate AS holder,
       v.review_expires_at AS expires_at,
       v.tenant_id AS tenant_id
FROM vehicles v
WHERE v.review_expires_at BETWEEN NOW() AND DATE_ADD(NOW(), INTERVAL ? DAY)
ORDER BY expires_at ASC`

// ExpiringDocuments returns documents that expire within the window,
// soonest first.
func (db *DB) ExpiringDocuments(ctx context.Context, within time.Duration) ([]models.ExpiringDocument, error) {
	days := int(within.Hours() / 24)
	if days < 1 {
		days = 1
	}

	rows, err := db.conn.QueryContext(ctx, expiringDocumentsQuery, days, days, days)
	if err != nil {
		return nil, fmt.Errorf("expiring documents query failed: %w", err)
	}
	defer rows.Close()

	var docs []models.ExpiringDocument
	for rows.Next() {
		var doc models.ExpiringDocument
		if err := rows.Scan(&doc.DocumentType, &doc.Holder, &doc.ExpiresAt, &doc.TenantID); err != nil {
			return nil, fmt.Errorf("failed to scan expiring document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("expiring documents iteration failed: %w", err)
	}
	return docs, nil
}
