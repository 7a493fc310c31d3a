/*
Package filesystem provides resilient filesystem operations with automatic retry
logic for NFS stale file handle errors.

Photo libraries frequently live on NAS mounts, and a culling session can run
for hours while the server remounts or a snapshot rotates. The wrappers here
retry ESTALE with exponential backoff and fail immediately on everything else.

# Usage

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

	data, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())

	err := filesystem.RenameWithRetry(src, dst, filesystem.DefaultRetryConfig())

# Retry Behavior

Defaults: 3 retries, 50ms initial backoff doubling up to 500ms. Only ESTALE
(errno 116 on Linux) triggers a retry.

# Metrics

Each operation reports its duration, retries and final outcome to the
package Observer, labeled with the volume resolved by the VolumeResolver
("input", "output", "cache" or "unknown"). Without an observer nothing is
recorded, which keeps tests free of Prometheus state.
*/
package filesystem
