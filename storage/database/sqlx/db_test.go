package sqlxrepos

import (
	"database/sql"
	"database/sql/driver"
	"testing"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/masomo-lms/core"
)

func Test_wrapErr(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantShutdown bool
	}{
		{name: "bad conn", err: driver.ErrBadConn, wantShutdown: true},
		{name: "conn done", err: sql.ErrConnDone, wantShutdown: true},
		{name: "connection failure", err: &pq.Error{Code: "08006"}, wantShutdown: true},
		{name: "admin shutdown", err: &pq.Error{Code: "57P01"}, wantShutdown: true},
		{name: "wrapped bad conn", err: errors.Wrap(driver.ErrBadConn, "tx"), wantShutdown: true},
		{name: "unique violation", err: &pq.Error{Code: uniqueViolation}},
		{name: "other", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrapErr(tt.err, "querying users")
			assert.Equal(t, tt.wantShutdown, core.IsShutdown(err))
			assert.Contains(t, err.Error(), "querying users: ")
			if !tt.wantShutdown {
				assert.Equal(t, tt.err, errors.Cause(err))
			}
		})
	}
}

func Test_trapNoRowsErr(t *testing.T) {
	notFound := errors.New("not found")
	assert.Equal(t, notFound, trapNoRowsErr(sql.ErrNoRows, notFound, "getting user"))
	assert.True(t, core.IsShutdown(trapNoRowsErr(driver.ErrBadConn, notFound, "getting user")))
}
