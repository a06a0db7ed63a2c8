// Package style classifies message text into a coarse conversational tag.
//
// Classification is ordered keyword matching over a closed tag set, so
// the same text always yields the same tag. The tag feeds the prompt
// builder and is stored on the user's profile.
package style
