/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package presenter contains a markup-free model of a UI element that presents the busy state:
// it swaps its content with a busy text, toggles CSS classes and the disabled flag
// while requests it's interested in are outstanding.
package presenter
