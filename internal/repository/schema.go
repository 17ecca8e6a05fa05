package repository

import (
	"context"
	"fmt"
)

// Target schema DDL. Type tokens are expanded per dialect.
const (
	createArticles = `CREATE TABLE IF NOT EXISTS ar_articles (
    uuid VARCHAR(255) PRIMARY KEY,
    created {{datetime}} NOT NULL DEFAULT CURRENT_TIMESTAMP,
    changed {{datetime}} NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

	createArticleDimensionContents = `CREATE TABLE IF NOT EXISTS ar_article_dimension_contents (
    id {{id}},
    article_uuid VARCHAR(255) NOT NULL,
    locale VARCHAR(7),
    "ghostLocale" VARCHAR(7),
    "availableLocales" {{json}},
    stage VARCHAR(16) NOT NULL,
    "templateKey" VARCHAR(31),
    "templateData" {{json}} NOT NULL,
    title VARCHAR(255),
    author_id INTEGER,
    authored {{datetime}},
    "workflowPlace" VARCHAR(31),
    "workflowPublished" {{datetime}},
    "seoTitle" VARCHAR(255),
    "seoDescription" TEXT,
    "seoKeywords" TEXT,
    "seoCanonicalUrl" TEXT,
    "seoNoIndex" {{bool}} NOT NULL DEFAULT FALSE,
    "seoNoFollow" {{bool}} NOT NULL DEFAULT FALSE,
    "seoHideInSitemap" {{bool}} NOT NULL DEFAULT FALSE,
    "excerptTitle" VARCHAR(255),
    "excerptMore" VARCHAR(63),
    "excerptDescription" TEXT,
    "excerptImageId" INTEGER,
    "excerptIconId" INTEGER,
    FOREIGN KEY (article_uuid) REFERENCES ar_articles(uuid) ON DELETE CASCADE
);`

	createArticleExcerptCategories = `CREATE TABLE IF NOT EXISTS ar_article_dimension_content_excerpt_categories (
    dimension_content_id INTEGER NOT NULL,
    category_id INTEGER NOT NULL,
    PRIMARY KEY (dimension_content_id, category_id),
    FOREIGN KEY (dimension_content_id) REFERENCES ar_article_dimension_contents(id) ON DELETE CASCADE
);`

	createArticleExcerptTags = `CREATE TABLE IF NOT EXISTS ar_article_dimension_content_excerpt_tags (
    dimension_content_id INTEGER NOT NULL,
    tag_id INTEGER NOT NULL,
    PRIMARY KEY (dimension_content_id, tag_id),
    FOREIGN KEY (dimension_content_id) REFERENCES ar_article_dimension_contents(id) ON DELETE CASCADE
);`

	createRoutes = `CREATE TABLE IF NOT EXISTS ro_routes (
    id {{id}},
    path VARCHAR(255) NOT NULL,
    locale VARCHAR(7) NOT NULL,
    entity_class VARCHAR(255) NOT NULL,
    entity_id VARCHAR(255) NOT NULL,
    history {{bool}} NOT NULL,
    created {{datetime}} NOT NULL,
    changed {{datetime}} NOT NULL,
    target_id INTEGER,
    FOREIGN KEY (target_id) REFERENCES ro_routes(id) ON DELETE CASCADE
);`
)

// Index DDL for the natural keys used by the persisters.
const (
	idxDimensionContentsKey = `CREATE INDEX IF NOT EXISTS idx_ar_dimension_key ON ar_article_dimension_contents(article_uuid, locale, stage);`
	idxRoutesPathLocale     = `CREATE UNIQUE INDEX IF NOT EXISTS idx_ro_routes_path_locale ON ro_routes(path, locale);`
	idxRoutesEntity         = `CREATE INDEX IF NOT EXISTS idx_ro_routes_entity ON ro_routes(entity_id, locale);`
)

// schemaDDL lists all statements in dependency order.
var schemaDDL = []string{
	createArticles,
	createArticleDimensionContents,
	createArticleExcerptCategories,
	createArticleExcerptTags,
	createRoutes,
	idxDimensionContentsKey,
	idxRoutesPathLocale,
	idxRoutesEntity,
}

// CreateSchema creates the target tables and indexes that do not exist yet.
func CreateSchema(ctx context.Context, r *EntityRepository) error {
	for _, stmt := range schemaDDL {
		if _, err := r.q().ExecContext(ctx, r.dialect.render(stmt)); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}
