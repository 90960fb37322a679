package mysql_service

import (
	"os"
	"testing"

	"easychat-service/major"
	"easychat-service/service/store_service"
	"easychat-service/service/store_service/storetest"

	"github.com/stretchr/testify/require"
)

// 需要真实 MySQL：CHAT_TEST_MYSQL_DSN="user:pass@tcp(127.0.0.1:3306)/chat_test?parseTime=True"
func TestMysqlStore(t *testing.T) {
	dsn := os.Getenv("CHAT_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("CHAT_TEST_MYSQL_DSN 未设置，跳过 MySQL 测试")
	}

	storetest.Run(t, func(t *testing.T) store_service.Store {
		db, err := major.OpenSqlDB(dsn, 5, 2)
		require.NoError(t, err)
		require.NoError(t, db.Migrator().DropTable(&userRow{}, &messageRow{}, &blockRow{}))
		s, err := NewMysqlService(db, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
