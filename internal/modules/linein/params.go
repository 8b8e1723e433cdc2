package linein

import (
	"fmt"
	"strconv"
)

func parseFloatParam(value string) (float64, error) {
	return strconv.ParseFloat(value, 64)
}

func formatFloatParam(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func errUnrecognizedParam(key string) error {
	return fmt.Errorf("linein: unrecognized param key %q", key)
}
