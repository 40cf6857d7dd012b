package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    TestBackend
		wantErr bool
	}{
		{in: "", want: BackendCargoTest},
		{in: "cargo-test", want: BackendCargoTest},
		{in: "test", want: BackendCargoTest},
		{in: "cargo-nextest", want: BackendCargoNextest},
		{in: "nextest", want: BackendCargoNextest},
		{in: "gotest", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBackend(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTestScope_String(t *testing.T) {
	assert.Equal(t, "workspace", WorkspaceScope().String())
	assert.Equal(t, "my-crate (lib)", PackageScope("my-crate", "my-crate", TargetLib).String())
	assert.Equal(t, "my-crate (bin cli)", PackageScope("my-crate", "cli", TargetBin).String())
	assert.Equal(t, "my-crate (other)", PackageScope("my-crate", "", TargetOther).String())
}
