// Package tips serves the static list of JavaScript coding tips.
package tips
