package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanPhone(t *testing.T) {
	t.Parallel()

	require.Equal(t, "51999888777", CleanPhone("+51 999-888-777"))
	require.Equal(t, "51999888777", CleanPhone("51999888777"))
	require.Equal(t, "", CleanPhone("sin número"))
}

func TestFormatPhone(t *testing.T) {
	t.Parallel()

	require.Equal(t, "+51999888777", FormatPhone("51 999 888 777"))
	require.Equal(t, "", FormatPhone(""))
}
