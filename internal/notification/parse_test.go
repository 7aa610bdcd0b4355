package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractOrderID(t *testing.T) {
	const id = "3f2b8c1e-9d4a-4e7b-8f6c-2a1d5e9b7c30"

	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{"label with spaces", "Đơn hàng đã thanh toán. Mã đơn : " + id, id, true},
		{"label without spaces", "Mã đơn:" + id + " vừa cập nhật", id, true},
		{"upper case normalized", "Mã đơn : 3F2B8C1E-9D4A-4E7B-8F6C-2A1D5E9B7C30", id, true},
		{"no label", "Order " + id + " updated", "", false},
		{"not a uuid", "Mã đơn : zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz", "", false},
		{"malformed groups", "Mã đơn : 3f2b8c1e9d4a-4e7b-8f6c-2a1d5e9b7c30--", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractOrderID(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
