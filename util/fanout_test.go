package util

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFanOut(t *testing.T) {
	inputs := []int{1, 2, 3, 4, 5}
	outcomes := FanOut(inputs, 2, func(n int) (int, error) {
		if n == 3 {
			return 0, fmt.Errorf("boom")
		}
		return n * 10, nil
	})
	require.Len(t, outcomes, 5)

	values := make(map[int]bool)
	failures := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failures++
			continue
		}
		values[o.Value] = true
	}
	require.Equal(t, 1, failures)
	require.Len(t, values, 4)
	require.True(t, values[10])
	require.True(t, values[50])
}

func TestFanOutEmpty(t *testing.T) {
	outcomes := FanOut(nil, 4, func(n int) (int, error) { return n, nil })
	require.Empty(t, outcomes)
}
