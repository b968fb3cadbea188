package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shashiranjanraj/vastra/app/models"
	"github.com/shashiranjanraj/vastra/pkg/cache"
	"github.com/shashiranjanraj/vastra/pkg/metrics"
	"github.com/shashiranjanraj/vastra/pkg/slug"
	"gorm.io/gorm"
)

// ErrEmptyPath is returned by Resolve for paths with no usable segments.
var ErrEmptyPath = errors.New("repositories: category path has no segments")

// maxSlugAttempts bounds the numeric-suffix retry loop. Fifty same-named
// siblings under one parent means the feed is broken, not the catalog.
const maxSlugAttempts = 50

// categoryCacheTTL of zero means no expiry: a resolved path never moves, so
// an entry only goes stale when its node is soft-deleted, and Resolve checks
// for that on every hit.
const categoryCacheTTL = 0

// CategoryRepository maintains the category tree: a nested set for subtree
// queries plus a materialized path per node for direct lookup. All mutation
// happens through Resolve and DeleteSubtree; concurrent writers coordinate
// through the unique indexes on path and (parent_id, slug).
type CategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository returns a repository bound to db, which may be a
// transaction handle.
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// SplitPath breaks a vendor category path into trimmed, non-empty display
// names. Vendors delimit with "->", ">", "/" or "|"; all four are accepted
// in one path.
func SplitPath(path string) []string {
	normalized := strings.ReplaceAll(path, "->", ">")
	segments := strings.FieldsFunc(normalized, func(r rune) bool {
		return r == '>' || r == '/' || r == '|'
	})

	out := segments[:0]
	for _, s := range segments {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Resolve walks path root-to-leaf, reusing or creating one node per segment,
// and returns the leaf category id. It is safe to call from concurrent
// workers: uniqueness violations are recovered by re-reading the winning row
// or retrying with a collision-suffixed slug, never surfaced to the caller.
func (r *CategoryRepository) Resolve(ctx context.Context, path string) (uint, error) {
	names := SplitPath(path)
	if len(names) == 0 {
		return 0, ErrEmptyPath
	}

	cacheKey := "category:path:" + strings.ToLower(strings.Join(names, "/"))
	var cached uint
	if cache.Get(cacheKey, &cached) {
		// A path never moves, but its node can be soft-deleted after the
		// entry was written. One liveness check keeps a hit from returning
		// a deleted id; a stale entry is dropped and the full walk below
		// restores the path.
		var live models.Category
		if err := r.db.WithContext(ctx).Select("id").First(&live, cached).Error; err == nil {
			metrics.CategoryCacheHits.Inc()
			return cached, nil
		}
		_ = cache.Del(cacheKey)
	}
	metrics.CategoryCacheMisses.Inc()

	var parent *models.Category
	for _, name := range names {
		node, err := r.resolveChild(ctx, parent, name)
		if err != nil {
			return 0, err
		}

		// Re-read the canonical row before descending so the composed child
		// paths agree with whatever a concurrent writer persisted.
		var fresh models.Category
		if err := r.db.WithContext(ctx).First(&fresh, node.ID).Error; err != nil {
			return 0, fmt.Errorf("repositories: re-read category %d: %w", node.ID, err)
		}
		parent = &fresh
	}

	_ = cache.Set(cacheKey, parent.ID, categoryCacheTTL)
	return parent.ID, nil
}

// resolveChild finds or creates the node for one display name under parent
// (nil parent = root level).
func (r *CategoryRepository) resolveChild(ctx context.Context, parent *models.Category, name string) (*models.Category, error) {
	base := slug.Make(name)

	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		s := slug.WithSuffix(base, attempt)
		path := s
		if parent != nil {
			path = parent.Path + "/" + s
		}

		node, ok, err := r.lookupByPath(ctx, path, name)
		if err != nil {
			return nil, err
		}
		if node != nil {
			return node, nil
		}
		if !ok {
			metrics.SlugCollisions.Inc()
			continue // path taken by a different display name, try next suffix
		}

		node, err = r.insert(ctx, parent, name, s, path)
		if err == nil {
			return node, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}

		// Lost a race on path or (parent, slug). Re-read: a concurrent
		// worker creating the same category means reuse; anything else
		// means a genuine slug collision, so take the next suffix.
		node, _, err = r.lookupByPath(ctx, path, name)
		if err != nil {
			return nil, err
		}
		if node != nil {
			return node, nil
		}
		metrics.SlugCollisions.Inc()
	}

	return nil, fmt.Errorf("repositories: no free slug for %q under %q after %d attempts",
		name, parentPath(parent), maxSlugAttempts)
}

// lookupByPath returns (node, _, nil) when path is held by a category with
// the same display name, (nil, true, nil) when the path is free, and
// (nil, false, nil) when the path is held by a different display name.
// Soft-deleted holders with a matching name are restored and reused, so a
// feed referencing a previously deleted path never duplicates it.
func (r *CategoryRepository) lookupByPath(ctx context.Context, path, name string) (*models.Category, bool, error) {
	var existing models.Category
	err := r.db.WithContext(ctx).Unscoped().Where("path = ?", path).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("repositories: lookup category path %q: %w", path, err)
	}

	if !strings.EqualFold(existing.Name, name) {
		return nil, false, nil
	}

	if existing.DeletedAt.Valid {
		err := r.db.WithContext(ctx).Unscoped().Model(&existing).Update("deleted_at", nil).Error
		if err != nil {
			return nil, false, fmt.Errorf("repositories: restore category %d: %w", existing.ID, err)
		}
	}
	return &existing, true, nil
}

// treeMu serializes interval arithmetic across the worker pool. The unique
// indexes catch cross-process races on identity, but nothing in the schema
// guards two writers computing overlapping [lft, rgt] bounds, so inserts
// from this process take their turn.
var treeMu sync.Mutex

// insert creates the node inside one transaction: widen every interval at or
// beyond the insertion point by +2, then claim [right, right+1]. A duplicate
// key error rolls the shift back along with the insert and is returned
// untranslated for the caller to recover.
func (r *CategoryRepository) insert(ctx context.Context, parent *models.Category, name, s, path string) (*models.Category, error) {
	treeMu.Lock()
	defer treeMu.Unlock()

	node := models.Category{Name: strings.TrimSpace(name), Slug: s, Path: path}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var right int
		if parent != nil {
			// Re-read the parent interval under the transaction; it moves
			// whenever a concurrent insert lands to the left of it.
			var p models.Category
			if err := tx.First(&p, parent.ID).Error; err != nil {
				return fmt.Errorf("repositories: read parent %d: %w", parent.ID, err)
			}
			right = p.Rgt
			node.ParentID = &p.ID

			// Interval math spans soft-deleted nodes too, or their stale
			// bounds would corrupt the tree on the next insert.
			if err := tx.Unscoped().Model(&models.Category{}).
				Where("rgt >= ?", right).
				Update("rgt", gorm.Expr("rgt + 2")).Error; err != nil {
				return fmt.Errorf("repositories: shift rgt: %w", err)
			}
			if err := tx.Unscoped().Model(&models.Category{}).
				Where("lft > ?", right).
				Update("lft", gorm.Expr("lft + 2")).Error; err != nil {
				return fmt.Errorf("repositories: shift lft: %w", err)
			}
		} else {
			var max sql.NullInt64
			if err := tx.Unscoped().Model(&models.Category{}).
				Select("MAX(rgt)").Scan(&max).Error; err != nil {
				return fmt.Errorf("repositories: max rgt: %w", err)
			}
			right = int(max.Int64) + 1
		}

		node.Lft = right
		node.Rgt = right + 1
		return tx.Create(&node).Error
	})
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// Subtree returns id's category and every descendant, ordered by Lft — one
// range scan thanks to the nested set.
func (r *CategoryRepository) Subtree(ctx context.Context, id uint) ([]models.Category, error) {
	var root models.Category
	if err := r.db.WithContext(ctx).First(&root, id).Error; err != nil {
		return nil, fmt.Errorf("repositories: subtree root %d: %w", id, err)
	}

	var nodes []models.Category
	err := r.db.WithContext(ctx).
		Where("lft >= ? AND rgt <= ?", root.Lft, root.Rgt).
		Order("lft").
		Find(&nodes).Error
	if err != nil {
		return nil, fmt.Errorf("repositories: subtree scan: %w", err)
	}
	return nodes, nil
}

// DeleteSubtree soft-deletes id and all of its descendants in one statement.
// Intervals are left in place (closed, not compacted) so sibling bounds stay
// valid and the path can be restored by a later import.
func (r *CategoryRepository) DeleteSubtree(ctx context.Context, id uint) error {
	var root models.Category
	if err := r.db.WithContext(ctx).First(&root, id).Error; err != nil {
		return fmt.Errorf("repositories: delete subtree root %d: %w", id, err)
	}

	err := r.db.WithContext(ctx).
		Where("lft >= ? AND rgt <= ?", root.Lft, root.Rgt).
		Delete(&models.Category{}).Error
	if err != nil {
		return fmt.Errorf("repositories: delete subtree: %w", err)
	}
	return nil
}

func parentPath(parent *models.Category) string {
	if parent == nil {
		return "(root)"
	}
	return parent.Path
}
