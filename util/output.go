package util

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
)

func WriteJSON(fn string, data interface{}) error {
	out, err := json.MarshalIndent(data, "", "   ")
	if err != nil {
		return errors.Wrap(err, "problem marshaling data")
	}

	out = append(out, '\n')

	return errors.Wrapf(os.WriteFile(fn, out, 0644), "problem writing json to %s", fn)
}

func PrintJSON(data interface{}) error {
	out, err := json.MarshalIndent(data, "", "   ")
	if err != nil {
		return errors.Wrap(err, "problem marshaling data")
	}

	fmt.Println(string(out))
	return nil
}

func WriteString(fn string, data string) error {
	return errors.Wrapf(os.WriteFile(fn, []byte(data+"\n"), 0644), "problem writing to %s", fn)
}
