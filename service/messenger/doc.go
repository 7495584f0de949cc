// Package messenger defines the card delivery contract the gating
// service posts approval cards through. Implementations adapt a chat
// transport; the memory subpackage records deliveries for tests.
package messenger
