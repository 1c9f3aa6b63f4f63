// Package refindex computes which uploaded assets are referenced by folder icons.
package refindex
