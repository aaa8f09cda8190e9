// Package batch reads card import files. Each non-empty line is one card:
//
//	今日はいい天気ですね。
//	公園に行きましょう。 = Let's go to the park.
//	猫が好きです。 = I like cats. | 猫 好き
//
// The part after "=" is the translation and the part after "|" lists the main
// words, separated by spaces or "、". Lines starting with "#" are comments.
package batch
