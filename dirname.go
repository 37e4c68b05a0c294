package queueindex

import "encoding/base64"

// EncodeQueueDirName returns the filesystem-safe, reversible encoding of a
// queue name used for its on-disk directory: base64 with '/' -> '_' and
// '+' -> '-', unpadded.
func EncodeQueueDirName(queueName string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(queueName))
}

// DecodeQueueDirName reverses EncodeQueueDirName.
func DecodeQueueDirName(dirName string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(dirName)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
