package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const cacheTimeLayout = "2006-01-02-15.04.05"

// CacheBase is the file name stem shared by all files of one cached session.
func CacheBase(t time.Time) string {
	return "audio-" + t.Format(cacheTimeLayout)
}

// keepCopy stores the WAV, the transcript and, when present, the raw backend
// response under dir.
func keepCopy(dir string, t time.Time, wavPath, text string, raw []byte) error {
	base := filepath.Join(dir, CacheBase(t))
	errs := []error{
		copyFile(wavPath, base+filepath.Ext(wavPath)),
		os.WriteFile(base+".txt", []byte(text+"\n"), 0o644),
	}
	if len(raw) > 0 {
		errs = append(errs, os.WriteFile(base+".json", raw, 0o644))
	}
	return errors.Join(errs...)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
