// Package repo 提供数据访问层实现，负责与 MySQL 交互。
// 仓储只接收和返回完整重建的领域实体，未找到时返回 (nil, nil)，
// 软删除的记录在所有读取路径上都被过滤。
package repo

import (
	"context"
	"database/sql"
	"strings"
)

// querier 同时由 *sql.DB 与 *sql.Tx 实现
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// placeholders 生成 IN 子句的占位符，如 "?,?,?"
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

func stringArgs(values []string) []interface{} {
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// likeEscape 转义 LIKE 模式中的通配符
func likeEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
