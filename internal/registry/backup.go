package registry

import (
	"fmt"
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"
)

const backupSuffix = ".bak.zst"

var (
	encoderPool sync.Pool
	decoderPool sync.Pool
)

func getEncoder() *zstd.Encoder {
	if v := encoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putEncoder(enc *zstd.Encoder) {
	encoderPool.Put(enc)
}

func getDecoder() *zstd.Decoder {
	if v := decoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putDecoder(dec *zstd.Decoder) {
	decoderPool.Put(dec)
}

// BackupPath returns where the previous registry contents are kept.
func (r *Repository) BackupPath() string {
	return r.path + backupSuffix
}

func (r *Repository) writeBackup(previous []byte) error {
	enc := getEncoder()
	defer putEncoder(enc)

	return writeFile(r.BackupPath(), enc.EncodeAll(previous, nil))
}

// HasBackup reports whether a backup file exists.
func (r *Repository) HasBackup() bool {
	_, err := os.Stat(r.BackupPath())
	return err == nil
}

// Restore replaces the registry with the contents of the backup. The
// current file becomes the new backup, so a second Restore undoes the
// first. The restored entries are returned.
func (r *Repository) Restore() ([]Entry, error) {
	compressed, err := os.ReadFile(r.BackupPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoBackup
		}
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}

	dec := getDecoder()
	data, err := dec.DecodeAll(compressed, nil)
	putDecoder(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress backup %s: %w", r.BackupPath(), err)
	}

	current, err := os.ReadFile(r.path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read registry %s: %w", r.path, err)
	}

	if err := writeFile(r.path, data); err != nil {
		return nil, err
	}
	if current != nil {
		if err := r.writeBackup(current); err != nil {
			return nil, fmt.Errorf("failed to rotate backup: %w", err)
		}
	}

	return r.Load()
}
