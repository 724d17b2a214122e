package fs

// SanitizeLongPathFor exposes the OS-parameterized sanitizer for tests.
var SanitizeLongPathFor = sanitizeLongPath
