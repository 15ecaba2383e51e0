package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ShareLink is one minted share link, recorded locally so `share list`
// works without the server.
type ShareLink struct {
	ID        string
	ShareID   string
	DocID     int64
	Filename  string
	URL       string
	CreatedAt time.Time
}

// RecordShare stores a minted share link. A missing row id is
// generated.
func (d *DB) RecordShare(link ShareLink) (ShareLink, error) {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}

	_, err := d.Exec(
		`INSERT INTO share_links (id, share_id, doc_id, filename, url, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		link.ID, link.ShareID, link.DocID, link.Filename, link.URL, link.CreatedAt,
	)
	if err != nil {
		return ShareLink{}, fmt.Errorf("recording share link: %w", err)
	}
	return link, nil
}

// ListShares returns minted share links, newest first. A limit of 0
// means all.
func (d *DB) ListShares(limit int) ([]ShareLink, error) {
	query := `SELECT id, share_id, doc_id, filename, url, created_at FROM share_links ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing share links: %w", err)
	}
	defer rows.Close()

	var links []ShareLink
	for rows.Next() {
		var l ShareLink
		if err := rows.Scan(&l.ID, &l.ShareID, &l.DocID, &l.Filename, &l.URL, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning share link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}
