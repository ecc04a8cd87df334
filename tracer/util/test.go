package util

import (
	"io/ioutil"
	"os"
)

// WithTempFile create a temporary file and calls fn with file path.
func WithTempFile(fn func(tmpfile string)) {
	file, err := ioutil.TempFile("", ".ctrace.test")
	if err != nil {
		panic(err)
	}
	defer func() {
		err = os.Remove(file.Name())
		if err != nil {
			panic(err)
		}
	}()

	fn(file.Name())
}
