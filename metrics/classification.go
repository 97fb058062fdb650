// Package metrics は分類モデルの評価指標を提供する
package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/ensego/pkg/errors"
)

// Accuracy は正解率を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := validatePair(yTrue, yPred, "Accuracy"); err != nil {
		return 0, err
	}

	n := yTrue.Len()
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError は誤分類率（1 - accuracy）を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// AUC はROC曲線の下の面積（AUROC）を計算する
//
// Mann-Whitney U統計量に基づくランク法で計算し、同スコアのサンプルには
// 平均ランクを割り当てる。yTrueは0/1の二値ラベルでなければならない。
// 正例または負例が存在しない場合は0.5を返し、UndefinedMetricWarningを発生させる。
func AUC(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := validatePair(yTrue, yPred, "AUC"); err != nil {
		return 0, err
	}
	if err := validateBinary(yTrue, "AUC"); err != nil {
		return 0, err
	}

	n := yTrue.Len()
	nPos := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			nPos++
		}
	}
	nNeg := n - nPos

	// 片方のクラスしか存在しない場合、AUCは定義できない
	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("AUC", "only one class present in yTrue", 0.5))
		return 0.5, nil
	}

	// スコア昇順にインデックスをソート
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	sort.Slice(indices, func(a, b int) bool {
		return yPred.AtVec(indices[a]) < yPred.AtVec(indices[b])
	})

	// 同スコアには平均ランクを割り当てる
	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && yPred.AtVec(indices[j]) == yPred.AtVec(indices[i]) {
			j++
		}
		// ランクは1始まり。[i, j)が同スコアのグループ
		avgRank := float64(i+j+1) / 2.0
		for k := i; k < j; k++ {
			ranks[indices[k]] = avgRank
		}
		i = j
	}

	// U統計量からAUCを計算
	var rankSum float64
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			rankSum += ranks[i]
		}
	}
	u := rankSum - float64(nPos)*float64(nPos+1)/2.0
	return u / (float64(nPos) * float64(nNeg)), nil
}

// AUCMatrix は行列形式の入力に対してAUCを計算する
// 複数列の行列が渡された場合は先頭列を使用する
func AUCMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	yTrueVec, err := firstColumn(yTrue, "AUCMatrix")
	if err != nil {
		return 0, err
	}
	yPredVec, err := firstColumn(yPred, "AUCMatrix")
	if err != nil {
		return 0, err
	}
	return AUC(yTrueVec, yPredVec)
}

// BinaryLogLoss は二値分類の交差エントロピー損失を計算する
// 予測確率はlog(0)を避けるため[eps, 1-eps]にクリップされる
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	if err := validatePair(yTrue, yPred, "BinaryLogLoss"); err != nil {
		return 0, err
	}
	if err := validateBinary(yTrue, "BinaryLogLoss"); err != nil {
		return 0, err
	}

	const eps = 1e-15
	n := yTrue.Len()
	var sum float64
	for i := 0; i < n; i++ {
		p := yPred.AtVec(i)
		if p < eps {
			p = eps
		}
		if p > 1-eps {
			p = 1 - eps
		}
		if yTrue.AtVec(i) == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(n), nil
}

// ConfusionMatrix は混同行列を計算する
// 戻り値のcounts[i][j]は、真のクラスlabels[i]がクラスlabels[j]と
// 予測された回数を表す
func ConfusionMatrix(yTrue, yPred *mat.VecDense) (counts [][]int, labels []int, err error) {
	if err := validatePair(yTrue, yPred, "ConfusionMatrix"); err != nil {
		return nil, nil, err
	}

	n := yTrue.Len()
	seen := make(map[int]bool)
	for i := 0; i < n; i++ {
		seen[int(yTrue.AtVec(i))] = true
		seen[int(yPred.AtVec(i))] = true
	}
	labels = make([]int, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Ints(labels)

	index := make(map[int]int, len(labels))
	for i, label := range labels {
		index[label] = i
	}

	counts = make([][]int, len(labels))
	for i := range counts {
		counts[i] = make([]int, len(labels))
	}
	for i := 0; i < n; i++ {
		counts[index[int(yTrue.AtVec(i))]][index[int(yPred.AtVec(i))]]++
	}
	return counts, labels, nil
}

// ROCPoint はROC曲線上の一点を表す
type ROCPoint struct {
	FPR       float64 // 偽陽性率
	TPR       float64 // 真陽性率
	Threshold float64 // この点に対応するスコア閾値
}

// ROCCurve はROC曲線の点列を計算する
// 点はFPR昇順に並び、(0,0)と(1,1)を両端に含む
func ROCCurve(yTrue, yPred *mat.VecDense) ([]ROCPoint, error) {
	if err := validatePair(yTrue, yPred, "ROCCurve"); err != nil {
		return nil, err
	}
	if err := validateBinary(yTrue, "ROCCurve"); err != nil {
		return nil, err
	}

	n := yTrue.Len()
	nPos, nNeg := 0, 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return nil, errors.NewValueError("ROCCurve", "both classes must be present in yTrue")
	}

	// スコア降順に走査し、閾値を下げながらTP/FPを累積する
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	sort.Slice(indices, func(a, b int) bool {
		return yPred.AtVec(indices[a]) > yPred.AtVec(indices[b])
	})

	points := []ROCPoint{{FPR: 0, TPR: 0, Threshold: math.Inf(1)}}
	tp, fp := 0, 0
	for i := 0; i < n; {
		threshold := yPred.AtVec(indices[i])
		// 同スコアのサンプルはまとめて処理する
		for i < n && yPred.AtVec(indices[i]) == threshold {
			if yTrue.AtVec(indices[i]) == 1 {
				tp++
			} else {
				fp++
			}
			i++
		}
		points = append(points, ROCPoint{
			FPR:       float64(fp) / float64(nNeg),
			TPR:       float64(tp) / float64(nPos),
			Threshold: threshold,
		})
	}
	return points, nil
}

// validatePair は長さの一致と空チェックを行う
func validatePair(yTrue, yPred *mat.VecDense, op string) error {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != yTrue.Len() {
		return errors.NewDimensionError(op, yTrue.Len(), yPred.Len(), 0)
	}
	return nil
}

// validateBinary はラベルが0/1のみであることを確認する
func validateBinary(yTrue *mat.VecDense, op string) error {
	for i := 0; i < yTrue.Len(); i++ {
		v := yTrue.AtVec(i)
		if v != 0 && v != 1 {
			return errors.NewValueError(op, "labels must be binary (0 or 1)")
		}
	}
	return nil
}

// firstColumn は行列の先頭列をVecDenseとして取り出す
func firstColumn(m mat.Matrix, op string) (*mat.VecDense, error) {
	if m == nil {
		return nil, errors.NewValueError(op, "nil matrix")
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	vec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		vec.SetVec(i, m.At(i, 0))
	}
	return vec, nil
}
