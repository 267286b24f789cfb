package stringutil

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

func ToJsonString(v interface{}) (string, error) {
	var bytes []byte
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(bytes), nil
}

// NonEmpty returns a slice with all empty strings removed
func NonEmpty(elems []string) []string {
	var res []string
	for _, e := range elems {
		if e != "" {
			res = append(res, e)
		}
	}
	return res
}

func QuotedStrings(elems []string) []string {
	var quotedElems []string
	for _, arg := range elems {
		quotedElems = append(quotedElems, fmt.Sprintf("%q", arg))
	}
	return quotedElems
}
