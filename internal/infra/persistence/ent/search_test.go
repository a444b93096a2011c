package ent

import (
	"strings"
	"testing"

	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"

	"entgo.io/ent/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchUsesSimilarityOnlyWithTrigram(t *testing.T) {
	tests := []struct {
		name           string
		dialect        string
		opts           []Option
		wantSimilarity bool
	}{
		{name: "Postgres 已安装 pg_trgm", dialect: dialect.Postgres, opts: []Option{WithTrigram(true)}, wantSimilarity: true},
		{name: "Postgres 未安装 pg_trgm", dialect: dialect.Postgres, opts: []Option{WithTrigram(false)}},
		{name: "Postgres 默认不使用", dialect: dialect.Postgres},
		{name: "SQLite 忽略该选项", dialect: dialect.SQLite, opts: []Option{WithTrigram(true)}},
		{name: "MySQL 忽略该选项", dialect: dialect.MySQL, opts: []Option{WithTrigram(true)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			postRepo := &archivedPostRepo{newSQLRepo(nil, tt.dialect, tt.opts...)}
			q := &model.ArchivedPostQuery{Search: "Trigram"}
			require.NoError(t, q.Normalize())
			pb := postRepo.builder()
			postRepo.writeListFilter(pb, q)
			postQuery, postArgs := pb.Query()

			userRepo := &archivedUserRepo{newSQLRepo(nil, tt.dialect, tt.opts...)}
			ub := userRepo.builder()
			userRepo.writeSearch(ub, "Trigram")
			userQuery, userArgs := ub.Query()

			for _, query := range []string{postQuery, userQuery} {
				assert.Equal(t, tt.wantSimilarity, strings.Contains(query, "similarity("), query)
				assert.Equal(t, !tt.wantSimilarity, strings.Contains(query, "LIKE"), query)
			}
			if !tt.wantSimilarity {
				assert.Contains(t, postArgs, "%trigram%")
				assert.Contains(t, userArgs, "%trigram%")
			}
		})
	}
}
