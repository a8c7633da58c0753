// Package theme provides CSS theming for the launch indicator window.
// Bundled themes are embedded in the binary; a file of the same name in
// ~/.config/startupmon/themes/ overrides them. A user theme is rebuilt when
// it or any file it imports changes on disk.
package theme
