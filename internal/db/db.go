package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/davidleitw/bahathread/internal/baha"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPostDbPath = "data/baha.db"
)

var ErrPostNotFound = errors.New("post not found")

type PostDB interface {
	Open(ctx context.Context) error

	SavePost(ctx context.Context, bsn string, post *baha.Post) error

	LoadPost(ctx context.Context, bsn, sna string) (*baha.Post, error)

	Close() error
}

type PostDb struct {
	path   string
	driver *sql.DB
}

var _ PostDB = (*PostDb)(nil)

func NewPostDb(path string) *PostDb {
	if path == "" {
		path = DefaultPostDbPath
	}
	return &PostDb{path: path}
}

var (
	tableCreateStatements = []string{
		`CREATE TABLE IF NOT EXISTS post_record (
			id TEXT PRIMARY KEY,
			bsn TEXT NOT NULL,
			sna TEXT NOT NULL,
			title TEXT NOT NULL,
			last_floor INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS reply_record (
			id TEXT NOT NULL UNIQUE,
			pid TEXT NOT NULL,
			floor_index INTEGER NOT NULL,
			author_name TEXT NOT NULL,
			author_id TEXT NOT NULL,
			date TEXT NOT NULL,
			description TEXT NOT NULL,
			PRIMARY KEY (pid, floor_index),
			FOREIGN KEY (pid) REFERENCES post_record(id)
		);`,
	}
)

func ensureDirectoryExists(path string) error {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logrus.Infof("Directory %s not exist, create it", dir)
		if err = os.MkdirAll(dir, 0755); err != nil {
			logrus.WithError(err).Error("os.MkdirAll")
			return err
		}
	}
	return nil
}

func (db *PostDb) Open(ctx context.Context) error {
	dbPath, err := filepath.Abs(db.path)
	if err != nil {
		logrus.WithError(err).Error("filepath.Abs failed")
		return err
	}

	if err := ensureDirectoryExists(dbPath); err != nil {
		logrus.WithError(err).Error("ensureDirectoryExists failed")
		return err
	}

	driver, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		logrus.WithError(err).Error("sql.Open failed")
		return err
	}
	logrus.WithField("PostDbPath", dbPath).Debug("sql.Open success")

	for _, statement := range tableCreateStatements {
		if _, err := driver.ExecContext(ctx, statement); err != nil {
			logrus.WithError(err).Error("driver.Exec failed")
			driver.Close()
			return err
		}
	}
	db.driver = driver
	return nil
}

func (db *PostDb) Close() error {
	if db.driver == nil {
		return nil
	}
	return db.driver.Close()
}

// SavePost upserts the thread row and the replies of post. Replies of other
// pages of the same thread are kept.
func (db *PostDb) SavePost(ctx context.Context, bsn string, post *baha.Post) error {
	pid := postRecordId(bsn, post.ID)

	tx, err := db.driver.BeginTx(ctx, nil)
	if err != nil {
		logrus.WithError(err).Error("driver.BeginTx failed")
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO post_record (id, bsn, sna, title, last_floor) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, last_floor = excluded.last_floor
	`, pid, bsn, post.ID, post.Title, post.Floor); err != nil {
		logrus.WithError(err).Error("insert post_record failed")
		return err
	}

	for _, content := range post.Posts {
		description, err := json.Marshal(content.Description)
		if err != nil {
			logrus.WithError(err).Error("json.Marshal failed")
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO reply_record (id, pid, floor_index, author_name, author_id, date, description)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(pid, floor_index) DO UPDATE SET
				author_name = excluded.author_name,
				author_id = excluded.author_id,
				date = excluded.date,
				description = excluded.description
		`, uuid.New().String(), pid, content.Floor, content.User.Name, content.User.ID, content.Date, string(description)); err != nil {
			logrus.WithError(err).WithField("floor", content.Floor).Error("insert reply_record failed")
			return err
		}
	}
	return tx.Commit()
}

func (db *PostDb) LoadPost(ctx context.Context, bsn, sna string) (*baha.Post, error) {
	pid := postRecordId(bsn, sna)

	var record PostRecord
	err := db.driver.QueryRowContext(ctx,
		`SELECT id, bsn, sna, title, last_floor FROM post_record WHERE id = ?;`, pid,
	).Scan(&record.Id, &record.Bsn, &record.Sna, &record.Title, &record.LastFloor)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		logrus.WithError(err).Error("db.driver.QueryRow.Scan failed")
		return nil, err
	}

	rows, err := db.driver.QueryContext(ctx, `
		SELECT id, pid, floor_index, author_name, author_id, date, description
		FROM reply_record WHERE pid = ? ORDER BY floor_index;
	`, pid)
	if err != nil {
		logrus.WithError(err).Error("db.driver.Query failed")
		return nil, err
	}
	defer rows.Close()

	post := &baha.Post{
		ID:    record.Sna,
		Title: record.Title,
		Floor: record.LastFloor,
		Posts: make([]baha.PostContent, 0),
	}
	for rows.Next() {
		var reply ReplyRecord
		if err := rows.Scan(&reply.Id, &reply.Pid, &reply.FloorIndex, &reply.AuthorName, &reply.AuthorId, &reply.Date, &reply.Description); err != nil {
			logrus.WithError(err).Error("rows.Scan failed")
			return nil, err
		}

		var description baha.Description
		if err := json.Unmarshal([]byte(reply.Description), &description); err != nil {
			logrus.WithError(err).Error("json.Unmarshal failed")
			return nil, err
		}

		post.Posts = append(post.Posts, baha.PostContent{
			Description: description,
			User:        baha.User{ID: reply.AuthorId, Name: reply.AuthorName},
			Floor:       reply.FloorIndex,
			Date:        reply.Date,
		})
	}
	return post, rows.Err()
}
