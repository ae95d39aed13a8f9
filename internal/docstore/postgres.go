package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Compile-time check that Postgres satisfies Store.
var _ Store = (*Postgres)(nil)

// notifyChannel is the channel the tournaments trigger publishes on (see migrations/).
const notifyChannel = "tournaments_changed"

// tournamentRecord maps to the tournaments table created by the migrations.
type tournamentRecord struct {
	ID        string         `gorm:"primaryKey"`
	Document  datatypes.JSON `gorm:"type:json;not null"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

// TableName pins the table name instead of relying on GORM's pluralization.
func (tournamentRecord) TableName() string { return "tournaments" }

// Postgres stores each tournament as a json document. The column is json rather than
// jsonb because jsonb reorders object keys, and a keyed teams mapping is read in stored
// key order. A field write locks the row, patches the text with sjson and saves it, so
// concurrent writers to different paths of the same tournament never clobber each other.
// Changes made by any process reach every process through LISTEN/NOTIFY.
type Postgres struct {
	db   *gorm.DB
	dsn  string
	feed *feed
	log  *zap.Logger

	stop context.CancelFunc
	wg   sync.WaitGroup
}

// NewPostgres wraps an open GORM handle. The schema must already be migrated.
// dsn is used for a dedicated pgx connection that LISTENs for changes; an empty dsn
// disables cross-process notifications.
func NewPostgres(db *gorm.DB, dsn string, opts ...Option) *Postgres {
	o := buildOptions(opts)
	p := &Postgres{db: db, dsn: dsn, log: o.log}
	p.feed = newFeed(p.load, o.log)

	ctx, cancel := context.WithCancel(context.Background())
	p.stop = cancel
	if dsn != "" {
		p.wg.Add(1)
		go p.listen(ctx)
	}
	return p
}

// Subscribe implements Store.
func (p *Postgres) Subscribe(ctx context.Context, fn Listener) (func(), error) {
	return p.feed.subscribe(ctx, fn), nil
}

// Set implements Store.
func (p *Postgres) Set(ctx context.Context, path Path, value json.RawMessage) error {
	if err := path.validate(); err != nil {
		return err
	}
	if !json.Valid(value) {
		return ErrInvalidDocument
	}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec tournamentRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&rec, "id = ?", path.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		updated, err := sjson.SetRawBytes([]byte(rec.Document), path.sjsonPath(), value)
		if err != nil {
			return err
		}
		return tx.Model(&rec).Update("document", datatypes.JSON(updated)).Error
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}

	p.feed.notify()
	return nil
}

// Create implements Store.
func (p *Postgres) Create(ctx context.Context, id string, doc json.RawMessage) error {
	if id == "" {
		return ErrEmptyPath
	}
	if !json.Valid(doc) {
		return ErrInvalidDocument
	}

	rec := tournamentRecord{ID: id, Document: datatypes.JSON(doc)}
	if err := p.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("create %q: %w", id, ErrExists)
		}
		return fmt.Errorf("create %q: %w", id, err)
	}

	p.feed.notify()
	return nil
}

// Delete implements Store.
func (p *Postgres) Delete(ctx context.Context, id string) error {
	res := p.db.WithContext(ctx).Where("id = ?", id).Delete(&tournamentRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete %q: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete %q: %w", id, ErrNotFound)
	}

	p.feed.notify()
	return nil
}

// Close stops the listener and ends every subscription. The GORM handle belongs to the
// caller and stays open.
func (p *Postgres) Close() error {
	p.stop()
	p.wg.Wait()
	p.feed.close()
	return nil
}

func (p *Postgres) load(ctx context.Context) ([]Document, error) {
	var recs []tournamentRecord
	if err := p.db.WithContext(ctx).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("select tournaments: %w", err)
	}
	out := make([]Document, 0, len(recs))
	for _, r := range recs {
		out = append(out, Document{ID: r.ID, Raw: json.RawMessage(r.Document)})
	}
	// Sort in Go: ORDER BY would follow the database collation, not byte order.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// listen holds a LISTEN connection open and turns every notification into a refresh.
// A dropped connection is re-established with exponential backoff; after reconnecting,
// subscribers are refreshed once in case changes were missed meanwhile.
func (p *Postgres) listen(ctx context.Context) {
	defer p.wg.Done()

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 0 // keep trying until Close

	op := func() error {
		conn, err := pgx.Connect(ctx, p.dsn)
		if err != nil {
			return err
		}
		defer func() { _ = conn.Close(context.Background()) }()

		if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
			return err
		}
		policy.Reset()
		p.feed.notify()

		for {
			n, err := conn.WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return backoff.Permanent(ctx.Err())
				}
				return err
			}
			p.log.Debug("tournament changed", zap.String("id", n.Payload))
			p.feed.notify()
		}
	}

	notify := func(err error, wait time.Duration) {
		p.log.Warn("postgres listener disconnected", zap.Error(err), zap.Duration("retry_in", wait))
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify); err != nil && ctx.Err() == nil {
		p.log.Error("postgres listener stopped", zap.Error(err))
	}
}
