// Package text renders the clock overlay: strftime templates laid out on a
// pixel layer with the bundled Go fonts.
package text
