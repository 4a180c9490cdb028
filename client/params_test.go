package client

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	{
		input := map[string]any{
			"page": 0,
			"size": 10,
		}
		expected := url.Values{
			"page": []string{"0"},
			"size": []string{"10"},
		}
		out, err := ParseParams(input)
		require.NoError(err)
		assert.Equal(expected, out)
	}

	{
		input := map[string]any{
			"flag":  true,
			"ids":   []string{"a", "b"},
			"empty": nil,
		}
		expected := url.Values{
			"flag":  []string{"true"},
			"ids":   []string{"a", "b"},
			"empty": []string{""},
		}
		out, err := ParseParams(input)
		require.NoError(err)
		assert.Equal(expected, out)
	}

	{
		input := map[string]any{
			"bad": map[string]string{"a": "b"},
		}
		_, err := ParseParams(input)
		assert.Error(err)
	}
}
